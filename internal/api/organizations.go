package api

import (
	"net/http"
	"strconv"

	"github.com/cityscope/cityscope/backend/directory-service/internal/models"
	"github.com/gin-gonic/gin"
)

// ListOrganizations handles GET /organizations_all
func (h *Handler) ListOrganizations(c *gin.Context) {
	orgs, err := h.db.ListOrganizations(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "Failed to fetch organizations")
		return
	}
	c.JSON(http.StatusOK, orgs)
}

// GetOrganization handles GET /organizations_all/:id
func (h *Handler) GetOrganization(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	org, err := h.db.GetOrganization(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "Failed to fetch organization")
		return
	}
	c.JSON(http.StatusOK, org)
}

// CreateOrganization handles POST /organizations_all. The flat write
// payload carries the district ids and priced product entries; the response
// is the re-fetched nested representation so the derived counts are real.
func (h *Handler) CreateOrganization(c *gin.Context) {
	var payload models.OrganizationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if errs := payload.ValidateCreate(); !errs.Empty() {
		c.JSON(http.StatusBadRequest, errs)
		return
	}
	org, err := h.db.CreateOrganization(c.Request.Context(), payload)
	if err != nil {
		respondStoreError(c, err, "Failed to create organization")
		return
	}
	c.JSON(http.StatusCreated, org)
}

// UpdateOrganization handles PATCH/PUT /organizations_all/:id. Submitted
// district and product lists fully replace the previous sets; absent keys
// leave them untouched.
func (h *Handler) UpdateOrganization(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var payload models.OrganizationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if errs := payload.ValidateUpdate(); !errs.Empty() {
		c.JSON(http.StatusBadRequest, errs)
		return
	}
	org, err := h.db.UpdateOrganization(c.Request.Context(), id, payload)
	if err != nil {
		respondStoreError(c, err, "Failed to update organization")
		return
	}
	c.JSON(http.StatusOK, org)
}

// DeleteOrganization handles DELETE /organizations_all/:id
func (h *Handler) DeleteOrganization(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.db.DeleteOrganization(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "Failed to delete organization")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListOrganizationsByDistrict handles GET /organizations/:district_id, the
// read-only listing scoped to one district. Query params: `search` for a
// case-insensitive product-name prefix, `categories` (repeatable) for
// category names.
func (h *Handler) ListOrganizationsByDistrict(c *gin.Context) {
	districtID, err := strconv.ParseInt(c.Param("district_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid district id"})
		return
	}
	search := c.Query("search")
	categories := c.QueryArray("categories")

	orgs, err := h.db.ListOrganizationsByDistrict(c.Request.Context(), districtID, search, categories)
	if err != nil {
		respondStoreError(c, err, "Failed to fetch organizations")
		return
	}
	c.JSON(http.StatusOK, orgs)
}
