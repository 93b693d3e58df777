package chart

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// drawing.ParseColor does not report errors and slices hex codes blindly,
// so only well-formed values reach it.
var (
	hexColorExpr  = regexp.MustCompile(`^#([0-9a-f]{3}|[0-9a-f]{6})$`)
	funcColorExpr = regexp.MustCompile(`^rgb\(\s*` + channel + `\s*,\s*` + channel + `\s*,\s*` + channel + `\s*\)$|` +
		`^rgba\(\s*` + channel + `\s*,\s*` + channel + `\s*,\s*` + channel + `\s*,\s*(0|1|0?\.\d+|1\.0*)\s*\)$`)
)

const channel = `(25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)`

// parseColor reads #rgb, #rrggbb, rgb(), rgba() and the basic named colours.
func parseColor(s string) (drawing.Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "" || s == "none" || s == "transparent":
		return drawing.ColorTransparent, nil
	case strings.HasPrefix(s, "#"):
		if !hexColorExpr.MatchString(s) {
			return drawing.Color{}, fmt.Errorf("unsupported color %q", s)
		}
	case strings.HasPrefix(s, "rgb"):
		if !funcColorExpr.MatchString(s) {
			return drawing.Color{}, fmt.Errorf("unsupported color %q", s)
		}
	default:
		if c := drawing.ColorFromKnown(s); !c.IsZero() {
			return c, nil
		}
		return drawing.Color{}, fmt.Errorf("unsupported color %q", s)
	}
	return drawing.ParseColor(s), nil
}

// colorOr parses s and falls back to def when s is empty or unparsable.
func colorOr(s string, def drawing.Color) drawing.Color {
	if strings.TrimSpace(s) == "" {
		return def
	}
	c, err := parseColor(s)
	if err != nil {
		return def
	}
	return c
}
