package dialect

import (
	"errors"

	"github.com/tidwall/gjson"
)

var (
	ErrInvalidJSON          = errors.New("invalid json")
	ErrInvalidJSONStructure = errors.New("json document has no outbounds key")
)

// Outbound types that describe routing rather than a proxy server.
var structuralOutbounds = map[string]bool{
	"selector": true,
	"urltest":  true,
	"direct":   true,
	"block":    true,
	"dns":      true,
}

func extractSingbox(body string) []Record {
	if !gjson.Valid(body) {
		return nil
	}

	doc := gjson.Parse(body)
	if !doc.IsObject() {
		return nil
	}

	outbounds := doc.Get("outbounds")
	if !outbounds.IsArray() {
		return nil
	}

	var records []Record
	outbounds.ForEach(func(_, ob gjson.Result) bool {
		if !ob.IsObject() {
			return true
		}

		kind := ob.Get("type").String()
		if structuralOutbounds[kind] {
			return true
		}

		rec := Record{
			Name:   ob.Get("tag").String(),
			Kind:   kind,
			Server: ob.Get("server").String(),
			Port:   ob.Get("server_port").String(),
			Raw:    ob.Raw,
		}
		if rec.Name != "" {
			records = append(records, rec)
		}

		return true
	})

	return records
}

// ValidateSingbox reports whether body is a JSON object carrying an outbounds key.
func ValidateSingbox(body string) error {
	if !gjson.Valid(body) {
		return ErrInvalidJSON
	}

	doc := gjson.Parse(body)
	if !doc.IsObject() || !doc.Get("outbounds").Exists() {
		return ErrInvalidJSONStructure
	}

	return nil
}
