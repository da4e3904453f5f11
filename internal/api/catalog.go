package api

import (
	"net/http"
	"strconv"

	"github.com/cityscope/cityscope/backend/directory-service/internal/db"
	"github.com/cityscope/cityscope/backend/directory-service/internal/models"
	"github.com/gin-gonic/gin"
)

// Categories, districts and networks share the {id, name} record shape, so
// each surface delegates to the shared handlers below.

// ListCategories handles GET /categories
func (h *Handler) ListCategories(c *gin.Context) { h.listNameRecords(c, db.TableCategories) }

// GetCategory handles GET /categories/:id
func (h *Handler) GetCategory(c *gin.Context) { h.getNameRecord(c, db.TableCategories) }

// CreateCategory handles POST /categories
func (h *Handler) CreateCategory(c *gin.Context) { h.createNameRecord(c, db.TableCategories) }

// UpdateCategory handles PATCH/PUT /categories/:id
func (h *Handler) UpdateCategory(c *gin.Context) { h.updateNameRecord(c, db.TableCategories) }

// DeleteCategory handles DELETE /categories/:id. Products of the category
// are removed with it.
func (h *Handler) DeleteCategory(c *gin.Context) { h.deleteNameRecord(c, db.TableCategories) }

// ListDistricts handles GET /districts
func (h *Handler) ListDistricts(c *gin.Context) { h.listNameRecords(c, db.TableDistricts) }

// GetDistrict handles GET /districts/:id
func (h *Handler) GetDistrict(c *gin.Context) { h.getNameRecord(c, db.TableDistricts) }

// CreateDistrict handles POST /districts
func (h *Handler) CreateDistrict(c *gin.Context) { h.createNameRecord(c, db.TableDistricts) }

// UpdateDistrict handles PATCH/PUT /districts/:id
func (h *Handler) UpdateDistrict(c *gin.Context) { h.updateNameRecord(c, db.TableDistricts) }

// DeleteDistrict handles DELETE /districts/:id. Organization associations
// referencing the district cascade away.
func (h *Handler) DeleteDistrict(c *gin.Context) { h.deleteNameRecord(c, db.TableDistricts) }

// ListNetworks handles GET /networks
func (h *Handler) ListNetworks(c *gin.Context) { h.listNameRecords(c, db.TableNetworks) }

// GetNetwork handles GET /networks/:id
func (h *Handler) GetNetwork(c *gin.Context) { h.getNameRecord(c, db.TableNetworks) }

// CreateNetwork handles POST /networks
func (h *Handler) CreateNetwork(c *gin.Context) { h.createNameRecord(c, db.TableNetworks) }

// UpdateNetwork handles PATCH/PUT /networks/:id
func (h *Handler) UpdateNetwork(c *gin.Context) { h.updateNameRecord(c, db.TableNetworks) }

// DeleteNetwork handles DELETE /networks/:id. Organizations of the network
// are removed with it.
func (h *Handler) DeleteNetwork(c *gin.Context) { h.deleteNameRecord(c, db.TableNetworks) }

func (h *Handler) listNameRecords(c *gin.Context, table string) {
	records, err := h.db.ListNameRecords(c.Request.Context(), table)
	if err != nil {
		respondStoreError(c, err, "Failed to fetch "+table)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) getNameRecord(c *gin.Context, table string) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	record, err := h.db.GetNameRecord(c.Request.Context(), table, id)
	if err != nil {
		respondStoreError(c, err, "Failed to fetch "+table)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) createNameRecord(c *gin.Context, table string) {
	payload, ok := bindNamePayload(c)
	if !ok {
		return
	}
	record, err := h.db.CreateNameRecord(c.Request.Context(), table, *payload.Name)
	if err != nil {
		respondStoreError(c, err, "Failed to create "+table)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *Handler) updateNameRecord(c *gin.Context, table string) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	payload, ok := bindNamePayload(c)
	if !ok {
		return
	}
	record, err := h.db.UpdateNameRecord(c.Request.Context(), table, id, *payload.Name)
	if err != nil {
		respondStoreError(c, err, "Failed to update "+table)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) deleteNameRecord(c *gin.Context, table string) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.db.DeleteNameRecord(c.Request.Context(), table, id); err != nil {
		respondStoreError(c, err, "Failed to delete "+table)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindNamePayload binds and validates the {name} write payload, replying
// with the field error map on failure.
func bindNamePayload(c *gin.Context) (*models.NameRecordPayload, bool) {
	var payload models.NameRecordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return nil, false
	}
	if errs := payload.Validate(); !errs.Empty() {
		c.JSON(http.StatusBadRequest, errs)
		return nil, false
	}
	return &payload, true
}

// paramID parses the :id route parameter, replying 400 on garbage.
func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id format"})
		return 0, false
	}
	return id, true
}
