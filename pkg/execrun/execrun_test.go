// SPDX-License-Identifier: AGPL-3.0-or-later

package execrun

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hopline/pkg/message"
)

func TestRun_CapturesStdout(t *testing.T) {
	out := Run(context.Background(), Request{
		Arglist: []string{"echo", "-n", "hello"},
		Output:  message.Stdout(),
	})
	if !out.Ok() {
		t.Fatalf("Run failed: %s", out.Reason())
	}
	if out.Value() != "hello" {
		t.Errorf("stdout = %q, want %q", out.Value(), "hello")
	}
}

func TestRun_PipesBodyToStdinWhenRequested(t *testing.T) {
	out := Run(context.Background(), Request{
		Arglist:           []string{"cat"},
		InputChannelStdin: true,
		Body:              []byte("piped body"),
		Output:            message.Stdout(),
	})
	if !out.Ok() {
		t.Fatalf("Run failed: %s", out.Reason())
	}
	if out.Value() != "piped body" {
		t.Errorf("stdout = %q, want %q", out.Value(), "piped body")
	}
}

func TestRun_NonZeroExitIsFailure(t *testing.T) {
	out := Run(context.Background(), Request{
		Arglist: []string{"sh", "-c", "exit 3"},
		Output:  message.Stdout(),
	})
	if out.Ok() {
		t.Fatalf("expected Failure, got Success(%v)", out.Value())
	}
}

func TestRun_TimeoutKillsProcess(t *testing.T) {
	out := Run(context.Background(), Request{
		Arglist: []string{"sleep", "5"},
		Timeout: 50 * time.Millisecond,
		Output:  message.Stdout(),
	})
	if out.Ok() {
		t.Fatalf("expected Failure, got Success(%v)", out.Value())
	}
	if !strings.HasSuffix(out.Reason(), "] Command timed out") {
		t.Errorf("Reason() = %q, want it to end with %q", out.Reason(), "] Command timed out")
	}
}

func TestRun_FileOutputChannelReadsNamedPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.txt")

	out := Run(context.Background(), Request{
		Arglist: []string{"sh", "-c", "echo -n written > " + path},
		Output:  message.NewFile(path),
	})
	if !out.Ok() {
		t.Fatalf("Run failed: %s", out.Reason())
	}
	if out.Value() != "written" {
		t.Errorf("scraped output = %q, want %q", out.Value(), "written")
	}
}

func TestRun_FileOutputChannelMissingFileIsFailure(t *testing.T) {
	out := Run(context.Background(), Request{
		Arglist: []string{"true"},
		Output:  message.NewFile("/nonexistent/path/does-not-exist.txt"),
	})
	if out.Ok() {
		t.Fatalf("expected Failure, got Success(%v)", out.Value())
	}
}

func TestRun_EmptyArglistIsFailure(t *testing.T) {
	out := Run(context.Background(), Request{Arglist: nil})
	if out.Ok() {
		t.Fatalf("expected Failure for empty arglist")
	}
}
