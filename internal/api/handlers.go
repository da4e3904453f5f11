package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/cityscope/cityscope/backend/directory-service/internal/db"
	"github.com/cityscope/cityscope/backend/directory-service/internal/models"
	"github.com/gin-gonic/gin"
)

// Store is the persistence surface the handlers need. *db.Database is the
// production implementation; tests use an in-memory one.
type Store interface {
	Health(ctx context.Context) error

	ListNameRecords(ctx context.Context, table string) ([]models.NameRecord, error)
	GetNameRecord(ctx context.Context, table string, id int64) (*models.NameRecord, error)
	CreateNameRecord(ctx context.Context, table string, name string) (*models.NameRecord, error)
	UpdateNameRecord(ctx context.Context, table string, id int64, name string) (*models.NameRecord, error)
	DeleteNameRecord(ctx context.Context, table string, id int64) error

	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, name string, categoryID int64) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, payload models.ProductPayload) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SetProductImage(ctx context.Context, id int64, imageURL string) error

	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	ListOrganizationsByDistrict(ctx context.Context, districtID int64, search string, categories []string) ([]models.Organization, error)
	GetOrganization(ctx context.Context, id int64) (*models.Organization, error)
	CreateOrganization(ctx context.Context, payload models.OrganizationPayload) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, id int64, payload models.OrganizationPayload) (*models.Organization, error)
	DeleteOrganization(ctx context.Context, id int64) error
}

// Handler holds the store and provides HTTP handlers
type Handler struct {
	db Store
}

// NewHandler creates a new handler instance
func NewHandler(store Store) *Handler {
	return &Handler{db: store}
}

// Health handles GET /health and GET /ready
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "Database connection failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "directory-service",
	})
}

// respondStoreError maps store failures onto the HTTP contract: a dangling
// or unknown id is a 404, a validation failure is a 400 carrying the
// field→message map, anything else is a 500.
func respondStoreError(c *gin.Context, err error, fallback string) {
	var fieldErrs models.FieldErrors
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusBadRequest, fieldErrs)
	default:
		log.Printf("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
