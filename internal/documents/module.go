// Package documents stores files attached to jobs: hand-over signatures,
// manifests, photos and destruction certificates.
package documents

import (
	"itad_portal_backend/internal/adapters/storage"
	"itad_portal_backend/internal/documents/handler"
	"itad_portal_backend/internal/documents/repository"
	"itad_portal_backend/internal/documents/service"
	apphttp "itad_portal_backend/internal/http"
	"itad_portal_backend/platform/logger"
	"itad_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the documents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the documents module.
func NewModule(pool *pgxpool.Pool, storageSvc storage.StorageService, bucket string, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), storageSvc, bucket, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "documents"
}

// Service returns the documents service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetJobGuard injects the job access check.
func (m *Module) SetJobGuard(guard service.JobGuard) {
	m.service.SetJobGuard(guard)
}

// RegisterRoutes mounts document routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	r := ctx.Protected
	r.GET("/jobs/:id/documents", m.handler.List)
	r.GET("/documents/:docId/download", m.handler.Download)
	r.GET("/documents/:docId/content", m.handler.Content)
	r.DELETE("/documents/:docId", m.handler.Delete)

	limited := r.Group("")
	if ctx.MutationLimiter != nil {
		limited.Use(ctx.MutationLimiter.RateLimit())
	}
	limited.POST("/jobs/:id/documents", m.handler.Upload)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
