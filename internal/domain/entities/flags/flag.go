// Package flags defines feature flag records and the typed views of their
// free-form metadata used by individual subsystems.
package flags

// FeatureFlag is an admin-managed on/off switch with free-form metadata
// interpreted per subsystem. A missing flag is treated as disabled with
// empty metadata.
type FeatureFlag struct {
	Key      string         `json:"key"`
	Enabled  bool           `json:"enabled"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Well-known flag keys.
const (
	KeyAds        = "ads"
	KeyNewsletter = "newsletter"
)

// AdsMetadata is the ads subsystem's view of the "ads" flag metadata.
// Zero values mean "not configured" and defer to caller overrides or
// hard-coded defaults.
type AdsMetadata struct {
	EnabledSlots          []string
	MaxPerPage            int
	InternalAdProbability float64
	HasProbability        bool
}

// AdsMetadataFrom extracts the ads configuration from a flag's metadata.
// JSON-decoded metadata carries numbers as float64 and lists as []any;
// anything malformed is simply skipped.
func AdsMetadataFrom(flag *FeatureFlag) AdsMetadata {
	var meta AdsMetadata
	if flag == nil || flag.Metadata == nil {
		return meta
	}

	if raw, ok := flag.Metadata["enabledSlots"]; ok {
		switch slots := raw.(type) {
		case []string:
			meta.EnabledSlots = slots
		case []any:
			for _, s := range slots {
				if str, ok := s.(string); ok {
					meta.EnabledSlots = append(meta.EnabledSlots, str)
				}
			}
		}
	}

	if raw, ok := flag.Metadata["maxPerPage"]; ok {
		switch n := raw.(type) {
		case int:
			meta.MaxPerPage = n
		case float64:
			meta.MaxPerPage = int(n)
		}
	}

	if raw, ok := flag.Metadata["internalAdProbability"]; ok {
		switch p := raw.(type) {
		case float64:
			meta.InternalAdProbability = p
			meta.HasProbability = true
		case int:
			meta.InternalAdProbability = float64(p)
			meta.HasProbability = true
		}
	}

	return meta
}
