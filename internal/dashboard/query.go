package dashboard

import (
	"net/url"
	"strings"
)

// DateRange bounds a load. Empty bounds are unbounded; values are passed to
// the server verbatim.
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// IsZero reports whether both bounds are empty.
func (r DateRange) IsZero() bool {
	return r.From == "" && r.To == ""
}

// QueryString returns "?desde=<from>&hasta=<to>" with only the non-empty
// bounds, or "" when both are empty.
func (r DateRange) QueryString() string {
	var parts []string
	if r.From != "" {
		parts = append(parts, "desde="+url.QueryEscape(r.From))
	}
	if r.To != "" {
		parts = append(parts, "hasta="+url.QueryEscape(r.To))
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}
