// SPDX-License-Identifier: AGPL-3.0-or-later

// Package blobstore defines the blob-storage interface consumed by the
// asset localizer and the auto-overflow path, and an AWS S3-backed
// implementation of it.
package blobstore

import "context"

// Store is the external collaborator spec.md leaves unspecified beyond
// its interface: a blob store the asset localizer downloads S3Assets
// from, and auto-overflow uploads oversize bodies to.
type Store interface {
	// Get downloads bucket/key to localPath.
	Get(ctx context.Context, bucket, key, localPath string) error
	// Put uploads body to bucket/key.
	Put(ctx context.Context, bucket, key string, body []byte) error
	// Stat returns the object's ETag and its "md5" user metadata value
	// (if set), used by the asset localizer's isCurrent check.
	Stat(ctx context.Context, bucket, key string) (etag, md5Meta string, err error)
}
