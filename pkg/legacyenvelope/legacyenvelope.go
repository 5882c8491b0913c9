// SPDX-License-Identifier: AGPL-3.0-or-later

// Package legacyenvelope bridges the Npipes wire format to and from the
// EZQ textual envelope (spec §4.3): `---\nEZQ:\n<yaml preamble>\n...\n<body>`.
package legacyenvelope

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"hopline/pkg/cleanup"
	"hopline/pkg/message"
	"hopline/pkg/s3path"
	"hopline/pkg/serialize"
)

// Prefix is the exact byte sequence a legacy envelope must begin with.
const Prefix = "---\nEZQ"

// separator is the literal token splitting preamble from body.
const separator = "\n...\n"

// IsLegacyEnvelope reports whether s is recognized as an EZQ envelope.
func IsLegacyEnvelope(s string) bool {
	return strings.HasPrefix(s, Prefix)
}

type s3FileRef struct {
	Bucket     string `yaml:"bucket"`
	Key        string `yaml:"key"`
	Decompress bool   `yaml:"decompress,omitempty"`
}

type ezqDirectives struct {
	ProcessCommand  string           `yaml:"process_command,omitempty"`
	ResultQueueName string           `yaml:"result_queue_name,omitempty"`
	GetS3Files      []s3FileRef      `yaml:"get_s3_files,omitempty"`
	GetS3FileAsBody *s3FileRef       `yaml:"get_s3_file_as_body,omitempty"`
	NpipesNextSteps []map[string]any `yaml:"npipes_next_steps,omitempty"`
}

type ezqWire struct {
	EZQ ezqDirectives `yaml:"EZQ"`
}

// Decode parses a legacy envelope string into a Message. The generated
// full-message and output files are registered with cleanupStack so the
// caller's deferred Close unlinks them once the step has run.
func Decode(s string, cleanupStack *cleanup.Stack) (message.Message, error) {
	if !IsLegacyEnvelope(s) {
		return message.Message{}, fmt.Errorf("legacyenvelope: missing %q prefix", Prefix)
	}

	preambleText, bodyStr, found := strings.Cut(s, separator)
	if !found {
		return message.Message{}, fmt.Errorf("legacyenvelope: missing %q separator", separator)
	}

	var wire ezqWire
	if err := yaml.Unmarshal([]byte(preambleText), &wire); err != nil {
		return message.Message{}, fmt.Errorf("legacyenvelope: parsing preamble: %w", err)
	}
	directives := wire.EZQ

	assets := makeAssets(directives.GetS3Files)
	body, assets := makeBody(bodyStr, directives.GetS3FileAsBody, assets)

	id := randomHex(4)
	outputFile := fmt.Sprintf("output_%s.txt", id)
	fullMsgFile := randomHex(16) + ".ezq_full_msg"

	arglist := substituteMarkers(fullMsgFile, makeArglist(id, directives.ProcessCommand))
	command := message.Command{Arglist: arglist, Output: message.NewFile(outputFile)}

	steps, err := makeSteps(command, assets, directives)
	if err != nil {
		return message.Message{}, err
	}

	if err := writeFullMessage(fullMsgFile, preambleText, bodyStr); err != nil {
		return message.Message{}, err
	}
	cleanupStack.Add(outputFile)
	cleanupStack.Add(fullMsgFile)

	return message.Message{Header: message.Header{Steps: steps}, Body: body}, nil
}

func makeAssets(files []s3FileRef) []message.Asset {
	assets := make([]message.Asset, 0, len(files))
	for i, f := range files {
		assets = append(assets, s3RefToAsset(f, i))
	}
	return assets
}

func makeBody(bodyStr string, asBody *s3FileRef, assets []message.Asset) (message.Body, []message.Asset) {
	if asBody == nil {
		return message.InString(bodyStr, message.PlainText), assets
	}
	idx := len(assets)
	assets = append(assets, s3RefToAsset(*asBody, idx))
	return message.InAsset(fmt.Sprintf("asset_%d", idx)), assets
}

func s3RefToAsset(f s3FileRef, index int) message.Asset {
	decompress := f.Decompress || strings.EqualFold(filepath.Ext(f.Key), ".gz")
	return message.S3Asset{
		Path: s3path.New(f.Bucket, f.Key),
		Opts: message.AssetSettings{ID: fmt.Sprintf("asset_%d", index), Decompress: decompress},
	}
}

func makeArglist(id, processCommand string) []string {
	if processCommand == "" {
		return []string{""}
	}
	expanded := strings.ReplaceAll(processCommand, "$id", id)
	if runtime.GOOS == "windows" {
		return []string{expanded}
	}
	return []string{"bash", "-c", expanded}
}

func substituteMarkers(fullMsgFile string, arglist []string) []string {
	out := make([]string, len(arglist))
	for i, elem := range arglist {
		e := elem
		e = strings.ReplaceAll(e, "$msg_contents", "${escapedbodycontents}")
		e = strings.ReplaceAll(e, "$timeout", "${timeout}")
		e = strings.ReplaceAll(e, "$input_file", "${bodyfile}")
		e = strings.ReplaceAll(e, "$full_msg_file", fullMsgFile)
		for n := 0; n < 10; n++ {
			e = strings.ReplaceAll(e, fmt.Sprintf("$s3_%d", n), fmt.Sprintf("${asset_%d}", n))
		}
		out[i] = e
	}
	return out
}

func makeSteps(command message.Command, assets []message.Asset, directives ezqDirectives) ([]message.Step, error) {
	first := message.Step{ID: "0", Command: command, Assets: assets}

	tunneled := make([]message.Step, 0, len(directives.NpipesNextSteps))
	for _, d := range directives.NpipesNextSteps {
		tunneled = append(tunneled, message.StepFromDict(d))
	}

	if directives.ResultQueueName == "" {
		return append([]message.Step{first}, tunneled...), nil
	}

	second := message.Step{
		ID: "1",
		Trigger: message.TriggerSqs{
			QueueName:    directives.ResultQueueName,
			OverflowPath: os.Getenv("NPIPES_SqsOverflowPath"),
		},
		Protocol: message.LegacyEnvelope,
	}
	return append([]message.Step{first, second}, tunneled...), nil
}

func writeFullMessage(path, preambleText, body string) error {
	contents, err := yaml.Marshal(map[string]any{"body": body, "preamble": preambleText})
	if err != nil {
		return fmt.Errorf("legacyenvelope: encoding full message: %w", err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return fmt.Errorf("legacyenvelope: writing %s: %w", path, err)
	}
	return nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("legacyenvelope: reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// Encode renders msg as a legacy envelope, per spec §4.3's emission
// rules. msg.Header.Steps must be non-empty.
func Encode(msg message.Message) (string, error) {
	steps := msg.Header.Steps
	if len(steps) == 0 {
		return "", fmt.Errorf("legacyenvelope: message has no steps to encode")
	}
	head, rest := steps[0], steps[1:]

	directives := ezqDirectives{
		ProcessCommand: strings.Join(head.Command.Arglist, " "),
		GetS3Files:     assetsToGetFiles(head.Assets),
	}
	if len(rest) > 0 {
		if sqs, ok := message.StepTrigger(rest[0]).(message.TriggerSqs); ok {
			directives.ResultQueueName = sqs.QueueName
		}
	}
	directives.NpipesNextSteps = stepsToMinDicts(rest)

	bodyStr, err := bodyString(msg.Body, head.Assets, &directives)
	if err != nil {
		return "", err
	}

	preamble, err := yaml.Marshal(ezqWire{EZQ: directives})
	if err != nil {
		return "", fmt.Errorf("legacyenvelope: encoding preamble: %w", err)
	}

	return "---\n" + string(preamble) + "...\n" + bodyStr, nil
}

func bodyString(body message.Body, assets []message.Asset, directives *ezqDirectives) (string, error) {
	if !body.IsAsset() {
		return body.Value, nil
	}
	for _, a := range assets {
		s3a, ok := a.(message.S3Asset)
		if !ok || a.Settings().ID != body.AssetID {
			continue
		}
		directives.GetS3FileAsBody = &s3FileRef{Bucket: s3a.Path.Bucket, Key: s3a.Path.Key}
		return fmt.Sprintf("Message body was diverted to S3 as %s", s3a.Path), nil
	}
	return "", fmt.Errorf("legacyenvelope: InAsset body references unknown asset id %q", body.AssetID)
}

func assetsToGetFiles(assets []message.Asset) []s3FileRef {
	out := make([]s3FileRef, 0, len(assets))
	for _, a := range assets {
		if s3a, ok := a.(message.S3Asset); ok {
			out = append(out, s3FileRef{Bucket: s3a.Path.Bucket, Key: s3a.Path.Key})
		}
	}
	return out
}

func stepsToMinDicts(steps []message.Step) []map[string]any {
	out := make([]map[string]any, 0, len(steps))
	for _, s := range steps {
		m, err := serialize.FromJSON(serialize.ToJSON(s.MinDict()))
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}
