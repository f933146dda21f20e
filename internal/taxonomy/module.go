// Package taxonomy provides read-only lookups over categories,
// sub-categories, spec fields and collection types.
package taxonomy

import (
	apphttp "itad_portal_backend/internal/http"
	"itad_portal_backend/internal/taxonomy/handler"
	"itad_portal_backend/internal/taxonomy/repository"
	"itad_portal_backend/internal/taxonomy/service"
	"itad_portal_backend/platform/config"
	"itad_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the taxonomy bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the taxonomy module. redisClient may be
// nil, in which case snapshots are cached in process only.
func NewModule(pool *pgxpool.Pool, redisClient *redis.Client, cfg config.TaxonomyConfig, log *logger.Logger) (*Module, error) {
	defaults, err := service.LoadDefaults(cfg.GetTaxonomyDefaultsFile())
	if err != nil {
		return nil, err
	}

	var cache service.SnapshotCache
	if redisClient != nil {
		cache = service.NewRedisCache(redisClient, cfg.GetTaxonomyCacheTTL())
	}

	svc := service.New(repository.New(pool), cache, defaults, cfg.GetTaxonomyCacheTTL(), log)
	return &Module{handler: handler.New(svc), service: svc}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "taxonomy"
}

// Service returns the taxonomy service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts taxonomy routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/taxonomy", m.handler.Get)
	ctx.Office.POST("/taxonomy/refresh", m.handler.Refresh)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
