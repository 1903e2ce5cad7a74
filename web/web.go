// Package web embeds the admin dashboard served by the API router.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var content embed.FS

// Handler serves the dashboard assets, with index.html at the root.
func Handler() http.Handler {
	static, err := fs.Sub(content, "static")
	if err != nil {
		// The embedded directory is fixed at build time.
		panic(err)
	}
	return http.FileServer(http.FS(static))
}
