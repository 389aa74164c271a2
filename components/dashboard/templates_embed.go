package dashboard

import (
	"embed"
	"io/fs"

	template "github.com/goliatone/go-template"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// NewTemplateRenderer renders the built-in widget templates.
func NewTemplateRenderer() (Renderer, error) {
	return NewTemplateRendererFS(embeddedTemplates, "templates")
}

// NewTemplateRendererFS renders the *.html templates found under dir in fsys,
// for hosts shipping their own widget markup.
func NewTemplateRendererFS(fsys fs.FS, dir string) (Renderer, error) {
	return template.NewRenderer(
		template.WithFS(fsys),
		template.WithBaseDir(dir),
		template.WithExtension(".html"),
	)
}
