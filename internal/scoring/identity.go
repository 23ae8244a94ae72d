package scoring

import (
	assets "medequip-cloud/internal/assets/domain"
)

// ResolveAssetRef maps a work-order or movement-log asset reference to
// the primary id of the asset it names. References carry either the
// primary id or the physical tag id; this is the single join point for
// both forms.
func ResolveAssetRef(ref string, snapshot []assets.Asset) (string, bool) {
	if ref == "" {
		return "", false
	}
	for i := range snapshot {
		if snapshot[i].MatchesRef(ref) {
			return snapshot[i].ID, true
		}
	}
	return "", false
}

// refsFor returns the identifiers under which other records may
// reference the asset.
func refsFor(asset assets.Asset) []string {
	refs := []string{asset.ID}
	if asset.TagID != "" && asset.TagID != asset.ID {
		refs = append(refs, asset.TagID)
	}
	return refs
}

func refMatches(asset assets.Asset, ref string) bool {
	return asset.MatchesRef(ref)
}
