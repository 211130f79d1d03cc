package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/domain/catalog"
	"github.com/abbakari/works/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves customers and items.
type CatalogHandler struct {
	*BaseHandler
	service *catalog.Service
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(base *BaseHandler, service *catalog.Service) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, service: service}
}

// ListCustomers handles GET /customers
func (h *CatalogHandler) ListCustomers(c *gin.Context) {
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	res, err := h.service.ListCustomers(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// CreateCustomer handles POST /customers
func (h *CatalogHandler) CreateCustomer(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := req.ToCustomer(actor.ID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.CreateCustomer(c.Request.Context(), customer); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, customer)
}

// GetCustomer handles GET /customers/:id
func (h *CatalogHandler) GetCustomer(c *gin.Context) {
	customerID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	customer, err := h.service.GetCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, customer)
}

// UpdateCustomer handles PUT /customers/:id
func (h *CatalogHandler) UpdateCustomer(c *gin.Context) {
	customerID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.service.UpdateCustomer(c.Request.Context(), customerID, req.Version, req.Apply)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, customer)
}

// DeactivateCustomer handles DELETE /customers/:id
func (h *CatalogHandler) DeactivateCustomer(c *gin.Context) {
	customerID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateCustomer(c.Request.Context(), customerID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ListItems handles GET /items
func (h *CatalogHandler) ListItems(c *gin.Context) {
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	res, err := h.service.ListItems(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// CreateItem handles POST /items
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req dto.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item := req.ToItem()
	if err := h.service.CreateItem(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item)
}

// GetItem handles GET /items/:id
func (h *CatalogHandler) GetItem(c *gin.Context) {
	itemID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	item, err := h.service.GetItem(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// UpdateItem handles PUT /items/:id
func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	itemID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.service.UpdateItem(c.Request.Context(), itemID, req.Version, req.Apply)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}
