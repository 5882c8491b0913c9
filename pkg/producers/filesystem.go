// SPDX-License-Identifier: AGPL-3.0-or-later

package producers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"hopline/pkg/cleanup"
	"hopline/pkg/message"
	"hopline/pkg/serialize"
)

// Filesystem treats a directory as a queue: each regular file is one
// Message, processed oldest-mtime-first. Grounded on
// original_source/npipes/producers/producer_filesystem.py.
type Filesystem struct {
	Dir             string
	RemoveSuccesses bool
	RemoveFailures  bool
	RefreshInterval time.Duration
	QuitWhenEmpty   bool

	processed map[string]bool
	pending   []string
	current   string
}

// NewFilesystem constructs a Filesystem producer watching dir. The
// default refresh interval is 1 second, matching the original's default.
func NewFilesystem(dir string) *Filesystem {
	return &Filesystem{Dir: dir, RefreshInterval: time.Second, processed: map[string]bool{}}
}

func newFilesystemFromArgs(args map[string]any, _ Deps) (Producer, error) {
	dir := serialize.Str(args, "dir", "")
	if dir == "" {
		return nil, fmt.Errorf("producers: filesystem: missing required \"dir\" argument")
	}
	p := NewFilesystem(dir)
	p.RemoveSuccesses = serialize.Bool(args, "removeSuccesses", false)
	p.RemoveFailures = serialize.Bool(args, "removeFailures", false)
	p.QuitWhenEmpty = serialize.Bool(args, "quitWhenEmpty", false)
	if secs := serialize.Int(args, "refreshInterval", 0); secs > 0 {
		p.RefreshInterval = time.Duration(secs) * time.Second
	}
	return p, nil
}

func (p *Filesystem) Next(ctx context.Context, stack *cleanup.Stack) (message.Message, bool, error) {
	for {
		if len(p.pending) == 0 {
			if err := p.refresh(); err != nil {
				return message.Message{}, false, err
			}
		}

		if len(p.pending) == 0 {
			if p.QuitWhenEmpty {
				return message.Message{}, false, nil
			}
			select {
			case <-ctx.Done():
				return message.Message{}, false, ctx.Err()
			case <-time.After(p.interval()):
			}
			continue
		}

		path := p.pending[0]
		p.pending = p.pending[1:]

		raw, err := os.ReadFile(path)
		if err != nil {
			// The file vanished between listing and reading; skip it
			// rather than fail the whole pass.
			continue
		}
		msg, err := parseRaw(string(raw), stack)
		if err != nil {
			return message.Message{}, false, fmt.Errorf("producers: filesystem: parsing %s: %w", path, err)
		}
		p.current = path
		return msg, true, nil
	}
}

func (p *Filesystem) Report(_ context.Context, result Result) error {
	path := p.current
	p.current = ""
	if path == "" {
		return nil
	}

	remove := (result.Ok() && p.RemoveSuccesses) || (!result.Ok() && p.RemoveFailures)
	if remove {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("producers: filesystem: removing %s: %w", path, err)
		}
		return nil
	}
	p.processed[path] = true
	return nil
}

func (p *Filesystem) refresh() error {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		return fmt.Errorf("producers: filesystem: listing %s: %w", p.Dir, err)
	}

	type candidate struct {
		path  string
		mtime time.Time
	}
	var candidates []candidate
	for _, e := range entries {
		path := filepath.Join(p.Dir, e.Name())
		if p.processed[path] {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, candidate{path, info.ModTime()})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].mtime.Before(candidates[j].mtime) })

	p.pending = p.pending[:0]
	for _, c := range candidates {
		p.pending = append(p.pending, c.path)
	}
	return nil
}

func (p *Filesystem) interval() time.Duration {
	if p.RefreshInterval <= 0 {
		return time.Second
	}
	return p.RefreshInterval
}
