package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/kx0101/subdiff/internal/models"
)

const (
	failuresKey = "_failures"
	runKey      = "_run"
)

var pathEscaper = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

func escapePath(key string) string {
	return pathEscaper.Replace(key)
}

// MergeResults writes the suites of run into doc, an existing results
// document. Suites of run replace their previous entries; other suites are
// kept so filtered runs do not erase earlier results.
func MergeResults(doc []byte, run models.RunData) ([]byte, error) {
	if len(strings.TrimSpace(string(doc))) == 0 || !gjson.ValidBytes(doc) || !gjson.ParseBytes(doc).IsObject() {
		doc = []byte("{}")
	}

	var err error
	for _, s := range run.Suites {
		suite := escapePath(s.Name)

		doc, err = sjson.DeleteBytes(doc, suite)
		if err != nil {
			return nil, fmt.Errorf("clearing suite %s: %w", s.Name, err)
		}

		doc, err = sjson.SetRawBytes(doc, suite, []byte("{}"))
		if err != nil {
			return nil, fmt.Errorf("adding suite %s: %w", s.Name, err)
		}

		for _, r := range s.Results {
			doc, err = sjson.SetBytes(doc, suite+"."+escapePath(r.ID), r.Outcome())
			if err != nil {
				return nil, fmt.Errorf("setting %s/%s: %w", s.Name, r.ID, err)
			}
		}

		if len(s.Failures) > 0 {
			doc, err = sjson.SetBytes(doc, suite+"."+failuresKey, s.Failures)
			if err != nil {
				return nil, fmt.Errorf("setting failures of %s: %w", s.Name, err)
			}
		}
	}

	doc, err = sjson.SetBytes(doc, runKey, map[string]any{
		"id":         run.RunID,
		"started_at": run.StartedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("setting run metadata: %w", err)
	}

	return doc, nil
}

// WriteResults merges run into the results file at path, creating it when
// needed.
func WriteResults(path string, run models.RunData) error {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading results file: %w", err)
	}

	doc, err := MergeResults(existing, run)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating results dir: %w", err)
	}

	if err := os.WriteFile(path, pretty.Pretty(doc), 0o644); err != nil {
		return fmt.Errorf("writing results file: %w", err)
	}

	return nil
}

// ReadOutcomes loads the case outcomes of a results document, keyed by suite
// then case id.
func ReadOutcomes(doc []byte) map[string]map[string]string {
	out := map[string]map[string]string{}

	gjson.ParseBytes(doc).ForEach(func(suite, cases gjson.Result) bool {
		if !cases.IsObject() || strings.HasPrefix(suite.String(), "_") {
			return true
		}

		m := map[string]string{}
		cases.ForEach(func(id, outcome gjson.Result) bool {
			if id.String() != failuresKey {
				m[id.String()] = outcome.String()
			}
			return true
		})
		out[suite.String()] = m
		return true
	})

	return out
}

// PrintJSON writes the whole run, cases and summary included.
func PrintJSON(w io.Writer, run models.RunData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(run); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}
