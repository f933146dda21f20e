// Package handler exposes client profiles over HTTP.
package handler

import (
	"net/http"
	"time"

	"itad_portal_backend/internal/clients/repository"
	"itad_portal_backend/internal/clients/service"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AddressResponse is a client's postal address.
type AddressResponse struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	County   string `json:"county,omitempty"`
	Postcode string `json:"postcode"`
	Country  string `json:"country,omitempty"`
}

// ContactResponse is a client's default site contact.
type ContactResponse struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// ClientResponse is one client profile.
type ClientResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     *string         `json:"phone,omitempty"`
	Address   AddressResponse `json:"address"`
	Contact   ContactResponse `json:"contact"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func toResponse(c *repository.Client) ClientResponse {
	return ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   AddressResponse(c.Address),
		Contact:   ContactResponse(c.Contact),
		UpdatedAt: c.UpdatedAt,
	}
}

// Handler handles HTTP requests for client profiles.
type Handler struct {
	svc *service.Service
}

// New creates a new clients handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Mine returns the caller's own client profile.
func (h *Handler) Mine(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	client, err := h.svc.Mine(c.Request.Context(), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(client))
}

// Get returns one client profile.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), "invalid id", nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	client, err := h.svc.Get(c.Request.Context(), identity, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(client))
}
