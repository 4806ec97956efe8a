package carto

import (
	"context"

	"github.com/gi8lino/tilecarto/internal/protocols"
	"github.com/gi8lino/tilecarto/internal/tilesource"
)

// Handler exposes a Resolver as a protocols.ProtocolHandler.
type Handler struct {
	Resolver *Resolver
}

// Resolve implements protocols.ProtocolHandler.
func (h Handler) Resolve(ctx context.Context, uri string) (tilesource.Source, error) {
	return h.Resolver.ResolveURI(ctx, uri)
}

// Register binds the cartodb schemes to r in reg.
// cartodb+file is only registered when file mode is enabled.
func Register(reg *protocols.Registry, r *Resolver) error {
	factory := func() (protocols.ProtocolHandler, error) { return Handler{Resolver: r}, nil }

	if err := reg.Register(SchemeByName, factory); err != nil {
		return err
	}
	if !r.FileMode() {
		return nil
	}
	return reg.Register(SchemeByConfig, factory)
}
