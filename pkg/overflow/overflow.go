// SPDX-License-Identifier: AGPL-3.0-or-later

// Package overflow implements SQS auto-overflow (spec §4.8): a message
// too large for the SQS payload cap is deflated in place, or offloaded
// to blob storage, before the Sqs Trigger sends it.
package overflow

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"hopline/pkg/blobstore"
	"hopline/pkg/message"
	"hopline/pkg/s3path"
)

// Budget is the serialized-message size, in bytes, auto-overflow keeps
// messages under — headroom below SQS's 262144-byte hard cap.
const Budget = 260_000

// AutoOverflowAssetID is the AssetSettings.ID given to the S3Asset
// appended to the head step when a body is too large even compressed.
const AutoOverflowAssetID = "AutoOverflow"

// RandomSuffix names the object written under overflowPath. Injected so
// callers control the source of randomness; production wiring passes
// DefaultRandomSuffix.
type RandomSuffix func() string

// DefaultRandomSuffix is the production RandomSuffix: 128 bits from
// crypto/rand, hex-encoded.
func DefaultRandomSuffix() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("overflow: reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// Apply returns msg unchanged if its serialized form already fits
// within Budget. Otherwise: an InString body is gzip(level 9)+base64
// encoded in place if that alone brings it under budget; failing that,
// the raw gzip bytes are uploaded to blob storage and the body replaced
// with a reference to a newly appended S3Asset. A body that is already
// InAsset is left unchanged — header-only overflow is out of scope.
func Apply(ctx context.Context, msg message.Message, overflowPath s3path.S3Path, store blobstore.Store, suffix RandomSuffix) (message.Message, error) {
	if len(message.ToJSONLines(msg)) <= Budget {
		return msg, nil
	}
	if msg.Body.IsAsset() {
		return msg, nil
	}

	compressed, err := gzipBytes([]byte(msg.Body.Value))
	if err != nil {
		return msg, fmt.Errorf("overflow: compressing body: %w", err)
	}

	b64Candidate := msg
	b64Candidate.Body = message.InString(base64.StdEncoding.EncodeToString(compressed), message.GzB64)
	if len(message.ToJSONLines(b64Candidate)) <= Budget {
		return b64Candidate, nil
	}

	if len(msg.Header.Steps) == 0 {
		return msg, fmt.Errorf("overflow: message has no head step to attach the overflow asset to")
	}

	key := overflowPath.Add(suffix())
	if err := store.Put(ctx, key.Bucket, key.Key, compressed); err != nil {
		return msg, fmt.Errorf("overflow: uploading to %s: %w", key, err)
	}

	steps := append([]message.Step(nil), msg.Header.Steps...)
	head := steps[0]
	head.Assets = append(append([]message.Asset(nil), head.Assets...), message.S3Asset{
		Path: key,
		Opts: message.AssetSettings{ID: AutoOverflowAssetID, Decompress: true},
	})
	steps[0] = head

	return message.Message{
		Header: message.Header{Encoding: msg.Header.Encoding, Steps: steps},
		Body:   message.InAsset(AutoOverflowAssetID),
	}, nil
}

func gzipBytes(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(body); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
