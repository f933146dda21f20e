// Package clients reads client account profiles. Profiles seed the address
// and contact of new quote drafts.
package clients

import (
	"itad_portal_backend/internal/clients/handler"
	"itad_portal_backend/internal/clients/repository"
	"itad_portal_backend/internal/clients/service"
	apphttp "itad_portal_backend/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the clients bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the clients module.
func NewModule(pool *pgxpool.Pool) *Module {
	svc := service.New(repository.New(pool))
	return &Module{handler: handler.New(svc), service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "clients"
}

// Service returns the clients service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts client routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/clients/me", m.handler.Mine)
	ctx.Protected.GET("/clients/:id", m.handler.Get)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
