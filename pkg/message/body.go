// SPDX-License-Identifier: AGPL-3.0-or-later

package message

import (
	"strings"

	"hopline/pkg/serialize"
)

// Body discriminators, exact spellings preserved on emit.
const (
	BodyStringKind = "string"
	BodyAssetKind  = "asset"
)

// Body is a tagged variant: InString carries the body text directly
// (possibly GzB64-encoded by auto-overflow); InAsset defers to a Step
// asset whose AssetSettings.ID matches AssetID.
type Body struct {
	Kind     string
	Value    string
	Encoding Encoding
	AssetID  string
}

// InString constructs the InString variant.
func InString(value string, encoding Encoding) Body {
	return Body{Kind: BodyStringKind, Value: value, Encoding: encoding}
}

// InAsset constructs the InAsset variant, referencing the asset whose
// AssetSettings.ID equals assetID.
func InAsset(assetID string) Body {
	return Body{Kind: BodyAssetKind, AssetID: assetID}
}

// DefaultBody is the zero-state value used when diffing for the
// minimal-dict encoding.
func DefaultBody() Body { return InString("", DefaultEncoding()) }

// IsAsset reports whether b is the InAsset variant.
func (b Body) IsAsset() bool { return b.Kind == BodyAssetKind }

// kind normalizes the Go zero value ("", from a struct literal that
// never set Kind) to BodyStringKind.
func (b Body) kind() string {
	if b.Kind == "" {
		return BodyStringKind
	}
	return b.Kind
}

func (b Body) fieldsDict() *serialize.Dict {
	d := serialize.NewDict().Set("type", b.kind())
	switch b.kind() {
	case BodyAssetKind:
		d.Set("assetId", b.AssetID)
	default:
		d.Set("value", b.Value).Set("encoding", string(b.Encoding.OrDefault()))
	}
	return d
}

// ToDict returns b's full structural representation.
func (b Body) ToDict() *serialize.Dict {
	return b.fieldsDict()
}

// MinDict returns b's minimal-diff structural representation.
func (b Body) MinDict() *serialize.Dict {
	return serialize.Diff(b.fieldsDict(), DefaultBody().fieldsDict())
}

// BodyFromDict reconstructs a Body, defaulting to an empty InString for
// a missing or unrecognized type.
func BodyFromDict(m map[string]any) Body {
	t := serialize.Str(m, "type", BodyStringKind)
	if strings.EqualFold(t, BodyAssetKind) {
		return InAsset(serialize.Str(m, "assetId", ""))
	}
	return InString(serialize.Str(m, "value", ""), ParseEncoding(serialize.Str(m, "encoding", string(PlainText))))
}
