// SPDX-License-Identifier: AGPL-3.0-or-later

package message

import (
	"strings"

	"hopline/pkg/s3path"
	"hopline/pkg/serialize"
)

// Asset discriminators, exact spellings preserved on emit.
const (
	AssetS3  = "S3"
	AssetURI = "Uri"
)

// Asset is a remote file a Step needs localized before its Command runs.
// S3Asset and UriAsset are its only two variants.
type Asset interface {
	Kind() string
	Settings() AssetSettings
	ToDict() *serialize.Dict
	MinDict() *serialize.Dict
}

// S3Asset is an Asset backed by an object in blob storage.
type S3Asset struct {
	Path s3path.S3Path
	Opts AssetSettings
}

func (a S3Asset) Kind() string            { return AssetS3 }
func (a S3Asset) Settings() AssetSettings { return a.Opts }

// DefaultS3Asset is the zero-state value used when diffing for the
// minimal-dict encoding.
func DefaultS3Asset() S3Asset { return S3Asset{Opts: DefaultAssetSettings()} }

func (a S3Asset) fieldsDict(settings *serialize.Dict) *serialize.Dict {
	d := serialize.NewDict().
		Set("type", AssetS3).
		Set("bucket", a.Path.Bucket).
		Set("key", a.Path.Key)
	if settings.Len() > 0 {
		d.Set("settings", settings)
	}
	return d
}

func (a S3Asset) ToDict() *serialize.Dict {
	return a.fieldsDict(a.Opts.ToDict())
}

func (a S3Asset) MinDict() *serialize.Dict {
	full := a.fieldsDict(a.Opts.MinDict())
	def := DefaultS3Asset()
	return serialize.Diff(full, def.fieldsDict(def.Opts.MinDict()))
}

// UriAsset is an Asset backed by an HTTP(S)-reachable URI.
type UriAsset struct {
	URI  string
	Opts AssetSettings
}

func (a UriAsset) Kind() string            { return AssetURI }
func (a UriAsset) Settings() AssetSettings { return a.Opts }

// DefaultUriAsset is the zero-state value used when diffing for the
// minimal-dict encoding.
func DefaultUriAsset() UriAsset { return UriAsset{Opts: DefaultAssetSettings()} }

func (a UriAsset) fieldsDict(settings *serialize.Dict) *serialize.Dict {
	d := serialize.NewDict().
		Set("type", AssetURI).
		Set("uri", a.URI)
	if settings.Len() > 0 {
		d.Set("settings", settings)
	}
	return d
}

func (a UriAsset) ToDict() *serialize.Dict {
	return a.fieldsDict(a.Opts.ToDict())
}

func (a UriAsset) MinDict() *serialize.Dict {
	full := a.fieldsDict(a.Opts.MinDict())
	def := DefaultUriAsset()
	return serialize.Diff(full, def.fieldsDict(def.Opts.MinDict()))
}

// AssetFromDict dispatches on the "type" discriminator, case-insensitively,
// defaulting to S3Asset for a missing or unrecognized type.
func AssetFromDict(m map[string]any) Asset {
	t := serialize.Str(m, "type", AssetS3)
	settings := AssetSettingsFromDict(serialize.SubDict(m, "settings"))
	if strings.EqualFold(t, AssetURI) {
		return UriAsset{URI: serialize.Str(m, "uri", ""), Opts: settings}
	}
	return S3Asset{
		Path: s3path.New(serialize.Str(m, "bucket", ""), serialize.Str(m, "key", "")),
		Opts: settings,
	}
}

// DefaultLocalTarget returns the local filename an asset localizes to
// when its AssetSettings.LocalTarget is empty: for S3 the key path, for
// URI the substring after the last "/".
func DefaultLocalTarget(a Asset) string {
	switch v := a.(type) {
	case S3Asset:
		return v.Path.Key
	case UriAsset:
		if i := strings.LastIndex(v.URI, "/"); i >= 0 {
			return v.URI[i+1:]
		}
		return v.URI
	default:
		return ""
	}
}
