// Package module wires the monitoring endpoints into the API using modkit
package module

import (
	"net/http"

	modkit "flatsense/internal/modkit"
	"flatsense/internal/modkit/httpkit"
	str "flatsense/internal/platform/strings"
	monitorhttp "flatsense/internal/services/api/monitor/http"
	monitorsvc "flatsense/internal/services/api/monitor/service"
)

// Module implements the monitor module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc monitorsvc.Service
}

// New constructs the monitor module around an orchestrating service
func New(deps modkit.Deps, svc monitorsvc.Service, opts ...modkit.Option) *Module {
	if svc == nil {
		panic("monitor module requires a service")
	}
	b := modkit.Build(append([]modkit.Option{modkit.WithName("monitor"), modkit.WithPrefix("/monitor")}, opts...)...)

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
		monitorhttp.Register(r, m.svc)
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
