// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine implements the Engine Loop (spec §4.10): for each
// Message a Producer yields, pop its head Step, localize assets, expand
// and run its Command, dispatch the successor Message, and report the
// Outcome back to the Producer. Grounded on
// original_source/npipes/processor.py's handleMessage/runMessageProducer.
package engine

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"hopline/pkg/assets"
	"hopline/pkg/cleanup"
	"hopline/pkg/execrun"
	"hopline/pkg/expand"
	"hopline/pkg/logging"
	"hopline/pkg/message"
	"hopline/pkg/outcome"
	"hopline/pkg/producers"
	"hopline/pkg/serialize"
	"hopline/pkg/triggers"
)

// uniqueOutputToken is the literal OutputChannel.Filepath that requests
// engine-generated unique naming, per spec §3's Command definition.
const uniqueOutputToken = "${unique}"

// Config is the process-wide Configuration (spec §3): the default
// Command, whether it always wins over a Step's own Command, and the
// process id exposed to command expansion as ${pid}.
type Config struct {
	Command     message.Command
	LockCommand bool
	PID         int
}

// Engine drives one Producer's stream of Messages to completion,
// processing them strictly one at a time (spec §5's scheduling model).
type Engine struct {
	Localizer  *assets.Localizer
	Dispatcher *triggers.Dispatcher
	Config     Config
	// WorkDir is where per-iteration scratch files (body, header,
	// output) are created; empty uses the OS default temp directory.
	WorkDir string
	// Logger receives per-iteration fatal failures (spec §7); a nil
	// Logger defaults to logging.NewLogger(false).
	Logger logging.Logger
}

func (e *Engine) logger() logging.Logger {
	if e.Logger == nil {
		return logging.NewLogger(false)
	}
	return e.Logger
}

// Run drives producer until it reports ok=false (exhausted) or returns a
// fatal error (a Producer-level failure, distinct from a per-message
// Outcome). Per-message failures are logged and reported back to the
// Producer; they never stop the loop.
func (e *Engine) Run(ctx context.Context, producer producers.Producer) error {
	for {
		stack := cleanup.NewStack()
		msg, ok, err := producer.Next(ctx, stack)
		if err != nil {
			stack.Close()
			return fmt.Errorf("engine: producer: %w", err)
		}
		if !ok {
			stack.Close()
			return nil
		}

		result := e.handle(ctx, msg, stack)
		stack.Close()

		if result.Failed() {
			e.logger().Error("engine: iteration failed", logging.NewField("reason", result.Reason()))
		}
		if err := producer.Report(ctx, result); err != nil {
			return fmt.Errorf("engine: producer report: %w", err)
		}
	}
}

// handle runs exactly one Message's lifecycle (spec §4.10, steps 1-9).
func (e *Engine) handle(ctx context.Context, msg message.Message, stack *cleanup.Stack) outcome.Outcome[struct{}] {
	step, remaining := message.PopStep(msg.Header)

	localized := e.Localizer.Localize(ctx, step.Assets)
	if localized.Failed() {
		return outcome.Propagate[[]string, struct{}](localized)
	}
	assetPaths := make(map[string]string, len(step.Assets))
	for i, a := range step.Assets {
		path := localized.Value()[i]
		assetPaths[a.Settings().ID] = path
		stack.Add(path)
	}

	body := extractBody(msg.Body, step.Assets, assetPaths)

	bodyFile, err := e.writeScratchFile(body)
	if err != nil {
		return outcome.Failure[struct{}](fmt.Sprintf("engine: %v", err))
	}
	stack.Add(bodyFile)

	// The header file captures the *original* header, before this
	// step was popped — matching processor.py's toJson(msg.header).
	headerFile, err := e.writeScratchFile(serialize.ToJSON(msg.Header.ToDict()))
	if err != nil {
		return outcome.Failure[struct{}](fmt.Sprintf("engine: %v", err))
	}
	stack.Add(headerFile)

	outputFile := e.scratchPath()
	stack.Add(outputFile)

	cmd := chooseCommand(e.Config, step.Command)
	cmd = resolveUniqueOutput(cmd, outputFile)
	expanded := expand.Expand(cmd, expand.Vars{
		BodyFile:   bodyFile,
		HeaderFile: headerFile,
		OutputFile: outputFile,
		PID:        e.Config.PID,
		Body:       body,
		AssetPaths: assetPaths,
	})

	var timeout time.Duration
	if expanded.Timeout > 0 {
		timeout = time.Duration(expanded.Timeout) * time.Second
	}
	ran := execrun.Run(ctx, execrun.Request{
		Arglist:           expanded.Arglist,
		InputChannelStdin: expanded.InputChannelStdin,
		Body:              []byte(body),
		Timeout:           timeout,
		Output:            expanded.Output,
	})
	if ran.Failed() {
		return outcome.Propagate[string, struct{}](ran)
	}

	successor := message.Message{Header: remaining, Body: message.InString(ran.Value(), message.PlainText)}
	trigger := message.PeekTrigger(remaining)
	return e.Dispatcher.Send(ctx, trigger, successor)
}

// chooseCommand implements spec §4.10 step 4: the Configuration's locked
// Command always wins when set.
func chooseCommand(cfg Config, stepCommand message.Command) message.Command {
	if cfg.LockCommand {
		return cfg.Command
	}
	return stepCommand
}

// resolveUniqueOutput substitutes the literal "${unique}" OutputChannel
// filepath (spec §3) with the engine-generated per-iteration output
// path, reusing the same scratch file already reserved for that
// purpose rather than allocating a second unique name.
func resolveUniqueOutput(cmd message.Command, outputFile string) message.Command {
	if cmd.Output.IsFile() && cmd.Output.Filepath == uniqueOutputToken {
		cmd.Output = message.NewFile(outputFile)
	}
	return cmd
}

// extractBody reverses a Body to a string for command expansion (spec
// §4.11): InString+PlainText is returned as-is, InString+GzB64 is
// base64- then gzip-decoded, and InAsset reads the localized file whose
// asset id matches.
func extractBody(body message.Body, assetList []message.Asset, assetPaths map[string]string) string {
	if body.IsAsset() {
		for _, a := range assetList {
			if a.Settings().ID != body.AssetID {
				continue
			}
			path, ok := assetPaths[body.AssetID]
			if !ok {
				return ""
			}
			contents, err := os.ReadFile(path)
			if err != nil {
				return ""
			}
			return string(contents)
		}
		return ""
	}
	if body.Encoding.OrDefault() == message.GzB64 {
		return decodeGzB64(body.Value)
	}
	return body.Value
}

func decodeGzB64(s string) string {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ""
	}
	r, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	defer r.Close()
	decoded, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return string(decoded)
}

func (e *Engine) writeScratchFile(content string) (string, error) {
	path := e.scratchPath()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing scratch file: %w", err)
	}
	return path, nil
}

func (e *Engine) scratchPath() string {
	dir := e.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, randomHex(16))
}

func randomHex(n int) string {
	b := make([]byte, n/2)
	if _, err := rand.Read(b); err != nil {
		panic("engine: reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(b)
}
