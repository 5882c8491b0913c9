// SPDX-License-Identifier: AGPL-3.0-or-later

// Package s3path implements the bucket/key address used by S3-backed
// assets and overflow destinations, round-tripping through the
// `s3://bucket/key/...` textual form used on the wire and in
// configuration values like NPIPES_SqsOverflowPath.
package s3path

import "strings"

// S3Path identifies an object, or a prefix under which objects are
// written, by bucket and key.
type S3Path struct {
	Bucket string
	Key    string
}

// New constructs an S3Path from an explicit bucket and key.
func New(bucket, key string) S3Path {
	return S3Path{Bucket: bucket, Key: key}
}

// Parse parses the `s3://bucket/key/...` form. A bare "bucket" with no
// key yields an S3Path with an empty Key.
func Parse(uri string) S3Path {
	trimmed := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(trimmed, "/", 2)
	p := S3Path{Bucket: parts[0]}
	if len(parts) == 2 {
		p.Key = parts[1]
	}
	return p
}

// Add returns a copy of p with elem appended to its key, joined by "/".
// Used to build a destination path under an overflow prefix.
func (p S3Path) Add(elem string) S3Path {
	if p.Key == "" {
		return S3Path{Bucket: p.Bucket, Key: elem}
	}
	return S3Path{Bucket: p.Bucket, Key: p.Key + "/" + elem}
}

// String renders p in the s3://bucket/key form.
func (p S3Path) String() string {
	return "s3://" + p.Bucket + "/" + p.Key
}
