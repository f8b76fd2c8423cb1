package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Engine renders the HTML templates embedded in the package.
type Engine struct {
	templates *template.Template
}

// newEngine initialises an Engine by parsing all embedded templates.
func newEngine() (*Engine, error) {
	t, err := template.New("assetd").ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Engine{templates: t}, nil
}

// Render executes the named template and writes it with the given status.
// The template runs into a buffer first so a rendering failure never
// produces a half written page.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data any) error {
	if e == nil || e.templates == nil {
		return fmt.Errorf("nil engine")
	}

	buf := bytes.NewBuffer(nil)
	if err := e.templates.ExecuteTemplate(buf, name, data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}
