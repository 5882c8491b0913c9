// SPDX-License-Identifier: AGPL-3.0-or-later

package message

import "hopline/pkg/serialize"

// AssetSettings carries the per-asset options that are common to every
// Asset variant: the id used as a ${id} expansion variable, whether to
// decompress after download, and an optional explicit local target path.
type AssetSettings struct {
	ID          string
	Decompress  bool
	LocalTarget string
}

// DefaultAssetSettings is the zero-state value used when diffing for the
// minimal-dict encoding.
func DefaultAssetSettings() AssetSettings { return AssetSettings{} }

// ToDict returns s's full structural representation.
func (s AssetSettings) ToDict() *serialize.Dict {
	return serialize.NewDict().
		Set("id", s.ID).
		Set("decompress", s.Decompress).
		Set("localTarget", s.LocalTarget)
}

// MinDict returns s's minimal-diff structural representation.
func (s AssetSettings) MinDict() *serialize.Dict {
	return serialize.Diff(s.ToDict(), DefaultAssetSettings().ToDict())
}

// AssetSettingsFromDict reconstructs AssetSettings, defaulting every
// missing key to its typed zero value.
func AssetSettingsFromDict(m map[string]any) AssetSettings {
	return AssetSettings{
		ID:          serialize.Str(m, "id", ""),
		Decompress:  serialize.Bool(m, "decompress", false),
		LocalTarget: serialize.Str(m, "localTarget", ""),
	}
}
