// Package assets serves the embedded static files for worldforge web pages.
package assets

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFiles embed.FS

// Handler serves the embedded static bundle under the given URL prefix.
// The bundle is immutable per build, so responses carry a short cache TTL
// to keep local development refreshes cheap without stale assets.
func Handler(prefix string) http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// The subtree is embedded at build time; a failure here means the
		// binary itself is broken.
		panic(err)
	}
	fileServer := http.StripPrefix(prefix, http.FileServer(http.FS(sub)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		fileServer.ServeHTTP(w, r)
	})
}
