// Package module wires the tool endpoints into the API using modkit
package module

import (
	"net/http"

	modkit "flatsense/internal/modkit"
	"flatsense/internal/modkit/httpkit"
	str "flatsense/internal/platform/strings"
	toolshttp "flatsense/internal/services/api/tools/http"
	toolssvc "flatsense/internal/services/api/tools/service"
)

// Module implements the tools module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc toolssvc.Service
}

// New constructs the tools module around an orchestrating service
func New(deps modkit.Deps, svc toolssvc.Service, opts ...modkit.Option) *Module {
	if svc == nil {
		panic("tools module requires a service")
	}
	b := modkit.Build(append([]modkit.Option{modkit.WithName("tools"), modkit.WithPrefix("/tools")}, opts...)...)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		toolshttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, func(rr httpkit.Router) {
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }
