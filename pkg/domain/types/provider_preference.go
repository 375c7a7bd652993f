package types

import "strings"

// ProviderPreference is the configured choice of capability implementation.
// Any string is accepted; values outside the known set are reported by the
// provider cascade instead of being rejected at configuration time.
type ProviderPreference string

const (
	ProviderPreferenceLocal  ProviderPreference = "local"
	ProviderPreferenceRemote ProviderPreference = "remote"
	ProviderPreferenceAuto   ProviderPreference = "auto"
)

// providerPreferenceAliases maps accepted spellings onto canonical preferences
var providerPreferenceAliases = map[string]ProviderPreference{
	"local":  ProviderPreferenceLocal,
	"remote": ProviderPreferenceRemote,
	"openai": ProviderPreferenceRemote,
	"auto":   ProviderPreferenceAuto,
}

// Normalize returns the canonical preference and whether it was recognized.
// Matching is case-insensitive and ignores surrounding whitespace.
func (p ProviderPreference) Normalize() (ProviderPreference, bool) {
	canonical, ok := providerPreferenceAliases[strings.ToLower(strings.TrimSpace(string(p)))]
	return canonical, ok
}

// String returns the string representation of the preference
func (p ProviderPreference) String() string {
	return string(p)
}
