package dialect

import (
	"fmt"
	"strings"
)

type Dialect string

const (
	Clash   Dialect = "clash"
	Singbox Dialect = "singbox"
	Surge   Dialect = "surge"
	Loon    Dialect = "loon"
	Quanx   Dialect = "quanx"
)

var All = []Dialect{Clash, Surge, Quanx, Loon, Singbox}

// Record is the dialect independent view of one proxy entry.
type Record struct {
	Name   string `json:"name"`
	Kind   string `json:"type"`
	Server string `json:"server"`
	Port   string `json:"port"`

	// Raw is the parsed fragment the record came from. It is only used for
	// diagnostics.
	Raw any `json:"-"`
}

func Parse(s string) (Dialect, error) {
	d := Dialect(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown dialect %q", s)
	}

	return d, nil
}

func (d Dialect) Valid() bool {
	switch d {
	case Clash, Singbox, Surge, Loon, Quanx:
		return true
	}

	return false
}

func (d Dialect) String() string {
	return string(d)
}

// Extract parses body as dialect d. Anything it cannot understand is dropped,
// so a body that does not parse at all yields an empty result.
func Extract(body string, d Dialect) []Record {
	if body == "" {
		return nil
	}

	switch d {
	case Clash:
		return extractClash(body)
	case Singbox:
		return extractSingbox(body)
	case Surge, Loon:
		return extractSurgeLike(body)
	case Quanx:
		return extractQuanx(body)
	}

	return nil
}
