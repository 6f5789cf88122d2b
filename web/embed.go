package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// StaticFS returns the static file system.
func StaticFS() (fs.FS, error) {
	return fs.Sub(content, "static")
}

// TemplatesFS returns the templates file system.
func TemplatesFS() (fs.FS, error) {
	return fs.Sub(content, "templates")
}
