// Package web embeds the server-rendered HTML templates.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates
var assets embed.FS

// Templates returns the template tree rooted at templates/.
func Templates() fs.FS {
	sub, err := fs.Sub(assets, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
