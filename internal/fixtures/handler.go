package fixtures

import (
	"net/http"
	"strings"
)

// Handler serves the fixtures at /<name>. Unknown names get 404.
func Handler() (http.Handler, error) {
	files, err := All()
	if err != nil {
		return nil, err
	}

	byName := make(map[string]File, len(files))
	for _, f := range files {
		byName[f.Name] = f
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		f, ok := byName[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", f.ContentType+"; charset=utf-8")
		w.Header().Set("Subscription-Userinfo", "upload=1024; download=2048; total=1073741824; expire=4102444800")
		_, _ = w.Write(f.Data)
	}), nil
}
