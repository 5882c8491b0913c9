// SPDX-License-Identifier: AGPL-3.0-or-later

package overflow

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"hopline/pkg/message"
	"hopline/pkg/s3path"
)

type fakeStore struct {
	put map[string][]byte
}

func (f *fakeStore) Get(ctx context.Context, bucket, key, localPath string) error { return nil }
func (f *fakeStore) Stat(ctx context.Context, bucket, key string) (string, string, error) {
	return "", "", nil
}
func (f *fakeStore) Put(ctx context.Context, bucket, key string, body []byte) error {
	if f.put == nil {
		f.put = map[string][]byte{}
	}
	f.put[bucket+"/"+key] = body
	return nil
}

func smallMessage(body string) message.Message {
	return message.Message{
		Header: message.Header{Steps: []message.Step{{ID: "step", Command: message.DefaultCommand()}}},
		Body:   message.InString(body, message.PlainText),
	}
}

func TestApply_WithinBudget_LeavesMessageUnchanged(t *testing.T) {
	msg := smallMessage("small body")
	got, err := Apply(context.Background(), msg, s3path.New("bucket", "overflow"), &fakeStore{}, func() string { return "x" })
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Body.Value != "small body" {
		t.Errorf("Body.Value = %q, want unchanged", got.Body.Value)
	}
}

func TestApply_CompressibleBody_EncodesInPlace(t *testing.T) {
	body := strings.Repeat("a", 400_000)
	msg := smallMessage(body)

	got, err := Apply(context.Background(), msg, s3path.New("bucket", "overflow"), &fakeStore{}, func() string { return "x" })
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Body.Encoding != message.GzB64 {
		t.Fatalf("Body.Encoding = %q, want GzB64", got.Body.Encoding)
	}
	if len(message.ToJSONLines(got)) > Budget {
		t.Errorf("encoded message still exceeds budget: %d bytes", len(message.ToJSONLines(got)))
	}
}

func TestApply_IncompressibleBody_OffloadsToBlobStore(t *testing.T) {
	body := make([]byte, 400_000)
	rand.New(rand.NewSource(1)).Read(body)
	msg := smallMessage(string(body))
	store := &fakeStore{}

	got, err := Apply(context.Background(), msg, s3path.New("bucket", "overflow"), store, func() string { return "random-suffix" })
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !got.Body.IsAsset() || got.Body.AssetID != AutoOverflowAssetID {
		t.Fatalf("Body = %+v, want InAsset(%q)", got.Body, AutoOverflowAssetID)
	}
	if len(got.Header.Steps[0].Assets) != 1 {
		t.Fatalf("head step assets = %v, want exactly one appended S3Asset", got.Header.Steps[0].Assets)
	}
	asset := got.Header.Steps[0].Assets[0]
	if asset.Settings().ID != AutoOverflowAssetID || !asset.Settings().Decompress {
		t.Errorf("appended asset settings = %+v, want id=%q decompress=true", asset.Settings(), AutoOverflowAssetID)
	}
	if len(store.put) != 1 {
		t.Fatalf("expected exactly one blob upload, got %d", len(store.put))
	}
}

func TestApply_BodyAlreadyAsset_LeftUnchanged(t *testing.T) {
	msg := message.Message{
		Header: message.Header{Steps: []message.Step{{ID: "step", Command: message.DefaultCommand(), Description: strings.Repeat("x", 400_000)}}},
		Body:   message.InAsset("already-an-asset"),
	}
	got, err := Apply(context.Background(), msg, s3path.New("bucket", "overflow"), &fakeStore{}, func() string { return "x" })
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Body.AssetID != "already-an-asset" {
		t.Errorf("Body.AssetID = %q, want unchanged", got.Body.AssetID)
	}
}
