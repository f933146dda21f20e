// Package jobs provides the jobs bounded context: the collection lifecycle,
// the item inventory and the audit log.
package jobs

import (
	apphttp "itad_portal_backend/internal/http"
	"itad_portal_backend/internal/jobs/handler"
	"itad_portal_backend/internal/jobs/repository"
	"itad_portal_backend/internal/jobs/service"
	"itad_portal_backend/platform/validator"
)

// Module is the jobs bounded context module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	lifecycle *service.Lifecycle
	inventory *service.Inventory
	audit     *service.AuditLog
	repo      *repository.Repository
}

// NewModule creates and initializes the jobs module. deps.Store is filled
// from repo when left nil.
func NewModule(repo *repository.Repository, deps service.Deps, val *validator.Validator) *Module {
	if deps.Store == nil {
		deps.Store = repo
	}
	lifecycle := service.NewLifecycle(deps)
	inventory := service.NewInventory(deps.Store, deps.Taxonomy, deps.Log)
	audit := service.NewAuditLog(deps.Store)

	return &Module{
		handler:   handler.New(lifecycle, inventory, audit, val),
		lifecycle: lifecycle,
		inventory: inventory,
		audit:     audit,
		repo:      repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "jobs"
}

// Lifecycle returns the lifecycle service for other modules.
func (m *Module) Lifecycle() *service.Lifecycle {
	return m.lifecycle
}

// Inventory returns the inventory service for other modules.
func (m *Module) Inventory() *service.Inventory {
	return m.inventory
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts job routes. Role checks beyond authentication happen
// in the services so every operation follows the same capability table.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	r := ctx.Protected
	r.GET("/jobs", m.handler.ListJobs)
	r.POST("/jobs", m.handler.CreateJob)
	r.GET("/jobs/:id", m.handler.GetJob)
	r.PATCH("/jobs/:id", m.handler.UpdateJob)
	r.DELETE("/jobs/:id", m.handler.DeleteDraft)

	// Quote funnel
	r.POST("/quotes", m.handler.RequestQuote)
	r.POST("/jobs/:id/submit", m.handler.SubmitQuoteRequest)
	r.POST("/jobs/:id/quote", m.handler.ProvideQuote)
	r.POST("/jobs/:id/accept", m.handler.AcceptQuote)
	r.POST("/jobs/:id/reject", m.handler.RejectQuote)

	// Operational funnel
	r.POST("/jobs/:id/schedule", m.handler.Schedule)
	r.POST("/jobs/:id/request-pending", m.handler.MarkRequestPending)
	r.POST("/jobs/:id/postpone", m.handler.Postpone)
	r.POST("/jobs/:id/cancel", m.handler.Cancel)
	r.POST("/jobs/:id/processing", m.handler.MarkProcessing)
	r.POST("/jobs/:id/complete", m.handler.MarkCompleted)

	// Signature uploads are throttled per IP
	limited := r.Group("")
	if ctx.MutationLimiter != nil {
		limited.Use(ctx.MutationLimiter.RateLimit())
	}
	limited.POST("/jobs/:id/collected", m.handler.MarkCollected)
	limited.POST("/jobs/:id/received", m.handler.MarkReceived)

	// Inventory
	r.GET("/jobs/:id/items", m.handler.ListItems)
	r.PUT("/jobs/:id/items", m.handler.SaveItems)
	r.GET("/jobs/:id/items/next-number", m.handler.NextItemNumber)
	r.POST("/jobs/:id/items/expand", m.handler.ExpandItem)
	r.DELETE("/jobs/:id/items/:itemId", m.handler.DeleteItem)

	// Audit log
	r.GET("/jobs/:id/audit", m.handler.ListAudit)
	r.POST("/jobs/:id/audit", m.handler.AddNote)
	r.PUT("/audit/:entryId", m.handler.UpdateNote)
	r.DELETE("/audit/:entryId", m.handler.DeleteNote)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
