package dashboard

import "io"

// fallbackTemplate renders actions that do not name a template.
const fallbackTemplate = "widget"

// Renderer renders a named template. go-template renderers satisfy it.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// templateFor resolves the template a mounted widget renders with.
func templateFor(snapshot WidgetSnapshot) string {
	if snapshot.Template != "" {
		return snapshot.Template
	}
	return fallbackTemplate
}
