// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assets implements the concurrent asset localizer: downloading
// every Asset a Step needs, decompressing where requested, and renaming
// each into its final local target.
package assets

import (
	"compress/gzip"
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"hopline/pkg/blobstore"
	"hopline/pkg/message"
	"hopline/pkg/outcome"
)

// Localizer downloads, decompresses, and renames every Asset in a Step
// onto local disk, running all downloads concurrently.
type Localizer struct {
	Store   blobstore.Store
	HTTPGet func(ctx context.Context, uri, localPath string) error
	WorkDir string
}

// NewLocalizer returns a Localizer backed by store for S3Assets and the
// default net/http-based downloader for UriAssets. workDir is where
// temporary download and extraction artifacts are created; empty uses
// the OS default temp directory.
func NewLocalizer(store blobstore.Store, workDir string) *Localizer {
	return &Localizer{Store: store, HTTPGet: httpGetImpl, WorkDir: workDir}
}

// Localize fetches every asset in order, in parallel, and returns their
// final local paths in the same order as the input — independent of
// completion order. On any failure, every sibling's local file is
// unlinked before a single Failure is returned; no partial success is
// surfaced.
func (l *Localizer) Localize(ctx context.Context, list []message.Asset) outcome.Outcome[[]string] {
	paths := make([]string, len(list))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range list {
		i, a := i, a
		g.Go(func() error {
			path, err := l.localizeOne(gctx, a)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, p := range paths {
			if p != "" {
				os.RemoveAll(p)
			}
		}
		return outcome.Failure[[]string](fmt.Sprintf("assets: %v", err))
	}
	return outcome.Success(paths)
}

func (l *Localizer) localizeOne(ctx context.Context, a message.Asset) (string, error) {
	settings := a.Settings()
	target := settings.LocalTarget
	if target == "" {
		target = message.DefaultLocalTarget(a)
	}

	if s3a, ok := a.(message.S3Asset); ok {
		if current, err := l.isCurrent(ctx, target, s3a); err == nil && current {
			return target, nil
		}
	}

	leaf := filepath.Base(target)
	ext := rawExtension(leaf)
	tmp := l.tempPath(ext)

	if err := l.download(ctx, a, tmp); err != nil {
		return "", err
	}

	result := tmp
	if settings.Decompress {
		decompressed, err := decompress(tmp)
		if err != nil {
			os.RemoveAll(tmp)
			return "", err
		}
		result = decompressed
	}

	if err := relocate(result, target); err != nil {
		return "", err
	}
	return target, nil
}

func (l *Localizer) download(ctx context.Context, a message.Asset, dest string) error {
	switch v := a.(type) {
	case message.S3Asset:
		if err := l.Store.Get(ctx, v.Path.Bucket, v.Path.Key, dest); err != nil {
			return fmt.Errorf("downloading %s: %w", v.Path, err)
		}
		return nil
	case message.UriAsset:
		if err := l.HTTPGet(ctx, v.URI, dest); err != nil {
			return fmt.Errorf("downloading %s: %w", v.URI, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown asset variant %T", a)
	}
}

// isCurrent reports whether target already holds the object identified
// by s3a, so the download can be skipped. An ETag mismatch (S3 ETags
// are not guaranteed MD5 for multipart uploads) is treated as "not
// current" rather than an error.
func (l *Localizer) isCurrent(ctx context.Context, target string, s3a message.S3Asset) (bool, error) {
	f, err := os.Open(target)
	if err != nil {
		return false, nil
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, err
	}
	localMD5 := hex.EncodeToString(h.Sum(nil))

	etag, md5Meta, err := l.Store.Stat(ctx, s3a.Path.Bucket, s3a.Path.Key)
	if err != nil {
		return false, err
	}
	return localMD5 == etag || localMD5 == md5Meta, nil
}

func (l *Localizer) tempPath(ext string) string {
	name := randomHex(16)
	if ext != "" {
		name += "." + ext
	}
	dir := l.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, name)
}

func randomHex(n int) string {
	b := make([]byte, n/2)
	if _, err := rand.Read(b); err != nil {
		panic("assets: reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// rawExtension returns everything past the first "." in leaf, so
// "archive.tar.gz" yields "tar.gz" rather than just "gz".
func rawExtension(leaf string) string {
	i := strings.Index(leaf, ".")
	if i < 0 || i == len(leaf)-1 {
		return ""
	}
	return leaf[i+1:]
}

func decompress(path string) (string, error) {
	switch {
	case strings.HasSuffix(path, ".zip"):
		return decompressZip(path)
	case strings.HasSuffix(path, ".gz"):
		return decompressGzip(path)
	default:
		return "", fmt.Errorf("no decompressor for %s", path)
	}
}

func decompressGzip(path string) (string, error) {
	stem := strings.TrimSuffix(path, ".gz")
	if strings.HasSuffix(path, ".tgz") {
		stem = strings.TrimSuffix(path, ".tgz") + ".tar"
	}

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	gz, err := gzip.NewReader(src)
	if err != nil {
		return "", fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	dst, err := os.Create(stem)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, gz); err != nil {
		return "", fmt.Errorf("decompressing to %s: %w", stem, err)
	}

	os.Remove(path)
	return stem, nil
}

func relocate(src, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("preparing %s: %w", target, err)
	}
	if err := os.Rename(src, target); err == nil {
		return nil
	}
	// Cross-device rename, or target names a directory: copy then
	// remove the source.
	if err := copyPath(src, target); err != nil {
		return fmt.Errorf("relocating %s to %s: %w", src, target, err)
	}
	os.RemoveAll(src)
	return nil
}

func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return filepath.WalkDir(src, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(src, p)
			if err != nil {
				return err
			}
			destPath := filepath.Join(dst, rel)
			if d.IsDir() {
				return os.MkdirAll(destPath, 0o755)
			}
			return copyFile(p, destPath)
		})
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

