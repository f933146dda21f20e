// Package exports renders job item manifests as XLSX workbooks.
package exports

import (
	apphttp "itad_portal_backend/internal/http"
	"itad_portal_backend/platform/logger"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the exports module.
func NewModule(jobs JobReader, items ItemReader, taxonomy TaxonomyNames, docs DocumentWriter, log *logger.Logger) *Module {
	return &Module{handler: NewHandler(jobs, items, taxonomy, docs, log)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/jobs/:id/manifest.xlsx", m.handler.DownloadManifest)
	ctx.Protected.POST("/jobs/:id/manifest", m.handler.ArchiveManifest)
}

var _ apphttp.Module = (*Module)(nil)
