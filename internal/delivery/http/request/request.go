package request

import "strings"

// ExtractRequest is the body of both extraction endpoints.
type ExtractRequest struct {
	URL    string `json:"url"`
	Notes  string `json:"notes"`
	Locale string `json:"locale"`
	// Location is the older name of Locale and is still accepted.
	Location string `json:"location"`
}

// CostLocale returns Locale, falling back to Location.
func (r ExtractRequest) CostLocale() string {
	if l := strings.TrimSpace(r.Locale); l != "" {
		return l
	}
	return strings.TrimSpace(r.Location)
}
