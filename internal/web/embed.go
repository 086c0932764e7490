// Package web provides the embedded dashboard page and its static assets for
// air-gapped deployment.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed dist/*
var staticFiles embed.FS

//go:embed templates/*.tmpl
var templateFiles embed.FS

// GetFileSystem returns the embedded filesystem with the dist folder as root.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "dist")
}

// RegisterStaticRoutes serves the embedded stylesheet and client script
// under /static/.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := GetFileSystem()
	if err != nil {
		return err
	}

	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
	e.GET("/static/*", echo.WrapHandler(fileServer))
	return nil
}

// GetEmbeddedFile returns a specific file from the embedded filesystem.
// Used for testing or direct file access.
func GetEmbeddedFile(name string) (fs.File, error) {
	staticFS, err := GetFileSystem()
	if err != nil {
		return nil, err
	}
	return staticFS.Open(name)
}
