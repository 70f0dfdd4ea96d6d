// Package web embeds the page templates and static assets into the binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

func sub(dir string) fs.FS {
	f, err := fs.Sub(content, dir)
	if err != nil {
		// dir is a literal embedded above.
		panic(err)
	}
	return f
}

// StaticFS returns the stylesheet and scripts served under /static/.
func StaticFS() fs.FS { return sub("static") }

// TemplatesFS returns the html/template sources.
func TemplatesFS() fs.FS { return sub("templates") }
