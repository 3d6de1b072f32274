package dialect

import (
	"regexp"
	"strings"
)

var (
	surgeProxySection  = sectionPattern("Proxy")
	quanxSections      = []*regexp.Regexp{sectionPattern("server_remote"), sectionPattern("server_local")}
	quanxTagAssignment = regexp.MustCompile(`tag\s*=\s*([^,]+)`)
)

// iniFingerprints are markers every surge, loon or quanx proxy list carries at
// least one of.
var iniFingerprints = []string{"[Proxy]", "[server_local]", "shadowsocks=", "server_remote"}

// sectionPattern matches the body of [name] up to the next '[' or the end of
// the text, case-insensitively.
func sectionPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)\[` + regexp.QuoteMeta(name) + `\]\s*(.*?)\s*(\[|$)`)
}

func sectionLines(body string, section *regexp.Regexp) []string {
	m := section.FindStringSubmatch(body)
	if m == nil {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		lines = append(lines, line)
	}

	return lines
}

// extractSurgeLike reads "name = type, server, port, ..." lines of the [Proxy]
// section. Surge and Loon share the layout.
func extractSurgeLike(body string) []Record {
	var records []Record
	for _, line := range sectionLines(body, surgeProxySection) {
		name, rest, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		rec := Record{Name: strings.TrimSpace(name), Raw: line}
		if rec.Name == "" {
			continue
		}

		parts := strings.Split(rest, ",")
		if len(parts) >= 3 {
			rec.Kind = strings.TrimSpace(parts[0])
			rec.Server = strings.TrimSpace(parts[1])
			rec.Port = strings.TrimSpace(parts[2])
		}

		records = append(records, rec)
	}

	return records
}

// extractQuanx reads "type=host:port, ..., tag=name" lines of the
// [server_remote] and [server_local] sections.
func extractQuanx(body string) []Record {
	var records []Record
	for _, section := range quanxSections {
		for _, line := range sectionLines(body, section) {
			m := quanxTagAssignment.FindStringSubmatch(line)
			if m == nil {
				continue
			}

			rec := Record{Name: strings.TrimSpace(m[1]), Raw: line}
			if rec.Name == "" {
				continue
			}

			parts := strings.Split(line, "=")
			if len(parts) > 1 {
				endpoint, _, _ := strings.Cut(parts[1], ",")
				if server, port, ok := strings.Cut(endpoint, ":"); ok {
					rec.Kind = strings.TrimSpace(parts[0])
					rec.Server = strings.TrimSpace(server)
					rec.Port = strings.TrimSpace(port)
				}
			}

			records = append(records, rec)
		}
	}

	return records
}

// HasINIFingerprint reports whether body looks like a surge, loon or quanx
// proxy list at all.
func HasINIFingerprint(body string) bool {
	for _, fp := range iniFingerprints {
		if strings.Contains(body, fp) {
			return true
		}
	}

	return false
}
