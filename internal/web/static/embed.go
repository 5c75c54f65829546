// Package static embeds the page templates and stylesheet of the web shell.
package static

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html assets/*
var files embed.FS

// Templates parses the page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(files, "templates/*.html")
}

// GetFileSystem returns an http.FileSystem for the embedded assets directory.
func GetFileSystem() http.FileSystem {
	fsys, err := fs.Sub(files, "assets")
	if err != nil {
		panic(err)
	}
	return http.FS(fsys)
}
