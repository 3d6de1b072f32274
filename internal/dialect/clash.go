package dialect

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidYAML          = errors.New("invalid yaml")
	ErrInvalidYAMLStructure = errors.New("yaml document has no proxies key")
)

func extractClash(body string) []Record {
	doc, ok := decodeYAMLMapping(body)
	if !ok {
		return nil
	}

	entries, ok := doc["proxies"].([]any)
	if !ok {
		return nil
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		fields, ok := asStringMap(entry)
		if !ok {
			continue
		}

		rec := Record{
			Name:   stringify(fields["name"]),
			Kind:   stringify(fields["type"]),
			Server: stringify(fields["server"]),
			Port:   stringify(fields["port"]),
			Raw:    fields,
		}
		if rec.Name == "" {
			continue
		}

		records = append(records, rec)
	}

	return records
}

// ValidateClash reports whether body is a YAML mapping carrying a proxies key.
func ValidateClash(body string) error {
	var doc any
	if err := yaml.Unmarshal([]byte(body), &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	fields, ok := asStringMap(doc)
	if !ok {
		return ErrInvalidYAMLStructure
	}

	if _, ok := fields["proxies"]; !ok {
		return ErrInvalidYAMLStructure
	}

	return nil
}

func decodeYAMLMapping(body string) (map[string]any, bool) {
	var doc any
	if err := yaml.Unmarshal([]byte(body), &doc); err != nil {
		return nil, false
	}

	return asStringMap(doc)
}

// yaml.v3 only decodes into map[string]any when every key is a string.
func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}

	return nil, false
}

func stringify(v any) string {
	if v == nil {
		return ""
	}

	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}
