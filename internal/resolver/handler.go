package resolver

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Handler serves the expansion of macro modules under root, so a browser or
// dev server can import "/lib/scene.dsljs" directly.
func (r *Resolver) Handler(root string) (http.Handler, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	importer := filepath.Join(absRoot, "index")

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		rel := strings.TrimPrefix(path.Clean("/"+req.URL.Path), "/")
		id, ok, err := r.ResolveID("./"+rel, importer)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !ok {
			http.NotFound(w, req)
			return
		}

		file, _, err := Path(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, req)
			return
		}

		code, _, err := r.Load(id)
		if err != nil {
			r.logger.Error("module load failed", zap.String("file", file), zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if req.Method == http.MethodHead {
			return
		}
		_, _ = io.WriteString(w, code)
	}), nil
}
