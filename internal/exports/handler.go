package exports

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"itad_portal_backend/internal/jobs/domain"
	jobsvc "itad_portal_backend/internal/jobs/service"
	taxrepo "itad_portal_backend/internal/taxonomy/repository"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/httpkit"
	"itad_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// JobReader loads a job after checking the actor may see it.
type JobReader interface {
	Get(ctx context.Context, actor domain.Actor, jobID uuid.UUID) (*domain.Job, error)
}

// ItemReader lists a job's items after checking the actor may see them.
type ItemReader interface {
	ListFor(ctx context.Context, actor domain.Actor, jobID uuid.UUID) (*jobsvc.ItemListing, error)
}

// TaxonomyNames resolves taxonomy ids to display names.
type TaxonomyNames interface {
	Category(ctx context.Context, id int64) (*taxrepo.Category, bool, error)
	SubCategory(ctx context.Context, id int64) (*taxrepo.SubCategory, bool, error)
}

// DocumentWriter archives generated files as job documents.
type DocumentWriter interface {
	StoreBytes(ctx context.Context, jobID uuid.UUID, docType, fileName, contentType string, data []byte, uploadedBy uuid.UUID) (string, error)
}

// Handler serves item manifest exports.
type Handler struct {
	jobs     JobReader
	items    ItemReader
	taxonomy TaxonomyNames
	docs     DocumentWriter
	log      *logger.Logger
	now      func() time.Time
}

// NewHandler creates a new export handler. taxonomy and docs may be nil.
func NewHandler(jobs JobReader, items ItemReader, taxonomy TaxonomyNames, docs DocumentWriter, log *logger.Logger) *Handler {
	return &Handler{jobs: jobs, items: items, taxonomy: taxonomy, docs: docs, log: log, now: time.Now}
}

// DownloadManifest streams the XLSX item manifest of a job.
func (h *Handler) DownloadManifest(c *gin.Context) {
	jobID, actor, ok := h.parse(c)
	if !ok {
		return
	}

	job, data, err := h.build(c.Request.Context(), actor, jobID)
	if httpkit.HandleError(c, err) {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", manifestFileName(job)))
	c.Data(http.StatusOK, ContentTypeXLSX, data)
}

// ArchiveManifestResponse names the stored manifest document.
type ArchiveManifestResponse struct {
	DocumentKey string `json:"documentKey"`
	FileName    string `json:"fileName"`
}

// ArchiveManifest stores the current manifest as a job document.
func (h *Handler) ArchiveManifest(c *gin.Context) {
	jobID, actor, ok := h.parse(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, actor.Require(domain.CanManageDocument)) {
		return
	}
	if h.docs == nil {
		httpkit.HandleError(c, apperr.Internal("document storage is not configured"))
		return
	}

	ctx := c.Request.Context()
	job, data, err := h.build(ctx, actor, jobID)
	if httpkit.HandleError(c, err) {
		return
	}

	name := manifestFileName(job)
	key, err := h.docs.StoreBytes(ctx, job.ID, "manifest", name, ContentTypeXLSX, data, actor.ID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, ArchiveManifestResponse{DocumentKey: key, FileName: name})
}

func (h *Handler) build(ctx context.Context, actor domain.Actor, jobID uuid.UUID) (*domain.Job, []byte, error) {
	job, err := h.jobs.Get(ctx, actor, jobID)
	if err != nil {
		return nil, nil, err
	}
	listing, err := h.items.ListFor(ctx, actor, jobID)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]ManifestRow, 0, len(listing.Items))
	for _, it := range listing.Items {
		rows = append(rows, ManifestRow{
			Item:        it,
			Category:    h.categoryName(ctx, it.CategoryID),
			SubCategory: h.subCategoryName(ctx, it.SubCategoryID),
		})
	}

	data, err := BuildManifest(job, rows, h.now())
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, "failed to build manifest", err)
	}
	return job, data, nil
}

func (h *Handler) categoryName(ctx context.Context, id *int64) string {
	if id == nil || h.taxonomy == nil {
		return ""
	}
	c, ok, err := h.taxonomy.Category(ctx, *id)
	if err != nil {
		h.log.WithContext(ctx).Warn("taxonomy lookup failed", "category_id", *id, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return c.Name
}

func (h *Handler) subCategoryName(ctx context.Context, id *int64) string {
	if id == nil || h.taxonomy == nil {
		return ""
	}
	c, ok, err := h.taxonomy.SubCategory(ctx, *id)
	if err != nil {
		h.log.WithContext(ctx).Warn("taxonomy lookup failed", "sub_category_id", *id, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return c.Name
}

func (h *Handler) parse(c *gin.Context) (uuid.UUID, domain.Actor, bool) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), "invalid id", nil)
		return uuid.Nil, domain.Actor{}, false
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.Nil, domain.Actor{}, false
	}
	role, ok := domain.ParseRole(identity.Role())
	if !ok {
		httpkit.Error(c, http.StatusForbidden, apperr.KindForbidden.Code(), "unknown role", nil)
		return uuid.Nil, domain.Actor{}, false
	}
	return jobID, domain.Actor{ID: identity.UserID(), Role: role, ClientID: identity.ClientID()}, true
}

func manifestFileName(job *domain.Job) string {
	return job.JobID + "-manifest.xlsx"
}
