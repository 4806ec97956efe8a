package protocols

import (
	"context"

	"github.com/gi8lino/tilecarto/internal/tilesource"
)

// TemplateHandler loads plain http(s) XYZ templates.
type TemplateHandler struct{}

// Resolve validates uri as an XYZ template.
func (TemplateHandler) Resolve(_ context.Context, uri string) (tilesource.Source, error) {
	return tilesource.NewTemplate(uri)
}

// RegisterTemplates registers TemplateHandler for http and https.
func RegisterTemplates(r *Registry) error {
	for _, scheme := range []string{"http", "https"} {
		if err := r.Register(scheme, func() (ProtocolHandler, error) { return TemplateHandler{}, nil }); err != nil {
			return err
		}
	}
	return nil
}
