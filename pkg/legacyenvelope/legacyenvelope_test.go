// SPDX-License-Identifier: AGPL-3.0-or-later

package legacyenvelope

import (
	"os"
	"strings"
	"testing"

	"hopline/pkg/cleanup"
	"hopline/pkg/message"
	"hopline/pkg/s3path"
)

const sampleEnvelope = `---
EZQ:
  process_command: "process -i $input_file -m $msg_contents -o out_$id.txt"
  get_s3_files:
    - bucket: mybucket
      key: inputs/frame.png
    - bucket: mybucket
      key: inputs/archive.gz
  result_queue_name: results-queue
...
the message body
`

func TestIsLegacyEnvelope(t *testing.T) {
	if !IsLegacyEnvelope(sampleEnvelope) {
		t.Fatal("expected sample to be recognized as a legacy envelope")
	}
	if IsLegacyEnvelope(`{"encoding":"plaintext"}`) {
		t.Fatal("expected a JSON-lines message not to be recognized")
	}
}

func TestDecode_BuildsAssetsAndQueueStep(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(dir)

	stack := cleanup.NewStack()
	defer stack.Close()

	msg, err := Decode(sampleEnvelope, stack)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(msg.Header.Steps) != 2 {
		t.Fatalf("len(Steps) = %d, want 2 (primary + sqs result step)", len(msg.Header.Steps))
	}

	primary := msg.Header.Steps[0]
	if len(primary.Assets) != 2 {
		t.Fatalf("len(Assets) = %d, want 2", len(primary.Assets))
	}
	s3a, ok := primary.Assets[1].(message.S3Asset)
	if !ok {
		t.Fatalf("Assets[1] is %T, want S3Asset", primary.Assets[1])
	}
	if !s3a.Opts.Decompress {
		t.Error("expected .gz key to force decompress=true regardless of flag")
	}
	if s3a.Opts.ID != "asset_1" {
		t.Errorf("Assets[1].ID = %q, want %q", s3a.Opts.ID, "asset_1")
	}

	for _, arg := range primary.Command.Arglist {
		if strings.Contains(arg, "$input_file") || strings.Contains(arg, "$msg_contents") || strings.Contains(arg, "$id") {
			t.Errorf("unsubstituted legacy marker left in arg: %q", arg)
		}
	}

	second := msg.Header.Steps[1]
	sqs, ok := message.StepTrigger(second).(message.TriggerSqs)
	if !ok {
		t.Fatalf("second step trigger is %T, want TriggerSqs", message.StepTrigger(second))
	}
	if sqs.QueueName != "results-queue" {
		t.Errorf("QueueName = %q, want %q", sqs.QueueName, "results-queue")
	}
	if second.Protocol != message.LegacyEnvelope {
		t.Errorf("second step Protocol = %q, want LegacyEnvelope", second.Protocol)
	}
}

func TestDecode_NoResultQueue_SingleStep(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(dir)

	const envelope = "---\nEZQ:\n  process_command: \"echo hi\"\n...\nbody text\n"
	stack := cleanup.NewStack()
	defer stack.Close()

	msg, err := Decode(envelope, stack)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(msg.Header.Steps) != 1 {
		t.Fatalf("len(Steps) = %d, want 1", len(msg.Header.Steps))
	}
	if msg.Body.Value != "body text" {
		t.Errorf("Body.Value = %q, want %q", msg.Body.Value, "body text")
	}
}

func TestEncode_RoundTripsProcessCommandAndAssets(t *testing.T) {
	msg := message.Message{
		Header: message.Header{Steps: []message.Step{
			{
				ID:      "0",
				Command: message.Command{Arglist: []string{"bash", "-c", "run"}},
				Assets: []message.Asset{
					message.S3Asset{Path: s3path.New("bucket", "a.txt")},
				},
			},
			{
				ID:      "1",
				Trigger: message.TriggerSqs{QueueName: "out-queue"},
			},
		}},
		Body: message.InString("hello", message.PlainText),
	}

	out, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(out, Prefix) {
		t.Fatalf("encoded envelope missing prefix: %q", out[:20])
	}
	if !strings.Contains(out, "process_command: bash -c run") {
		t.Errorf("expected process_command joined from arglist in output:\n%s", out)
	}
	if !strings.Contains(out, "key: a.txt") {
		t.Errorf("expected S3 asset listed in get_s3_files in output:\n%s", out)
	}
	if !strings.Contains(out, "result_queue_name: out-queue") {
		t.Errorf("expected result_queue_name in output:\n%s", out)
	}
	if !strings.HasSuffix(out, "hello") {
		t.Errorf("expected body to be appended verbatim, got suffix of: %q", out)
	}
}
