package handler

import (
	"context"

	appbidding "github.com/bidhub/backend/internal/application/bidding"
	appcatalog "github.com/bidhub/backend/internal/application/catalog"
	"github.com/bidhub/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// CatalogQueries is the read side of the catalog
type CatalogQueries interface {
	GetCatalogPage(ctx context.Context, query appcatalog.PageQuery) (shared.Paginated[appcatalog.CatalogListItemResponse], error)
	SearchCatalog(ctx context.Context, req appcatalog.SearchCatalogRequest) (shared.Paginated[appcatalog.CatalogListItemResponse], error)
	GetCatalogItem(ctx context.Context, naturalKey string) (*appcatalog.CatalogItemResponse, error)
	GetFloor(ctx context.Context, naturalKey string) (*appcatalog.FloorResponse, error)
}

// BidHistory lists accepted bids of one item
type BidHistory interface {
	ListItemBids(ctx context.Context, naturalKey string, page shared.PageRequest) (shared.Paginated[appbidding.BidResponse], error)
}

// CatalogHandler serves the public catalog
type CatalogHandler struct {
	BaseHandler
	catalog CatalogQueries
	bids    BidHistory
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog CatalogQueries, bids BidHistory) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, bids: bids}
}

// RegisterRoutes registers the catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	items := rg.Group("/catalog/items")
	items.GET("", h.ListItems)
	items.GET("/search", h.SearchItems)
	items.GET("/:key", h.GetItem)
	items.GET("/:key/floor", h.GetFloor)
	items.GET("/:key/bids", h.ListBids)
}

// ListItems godoc
// @Summary      List open and upcoming catalog items
// @Tags         catalog
// @Produce      json
// @Param        page       query int false "Page number" default(1)
// @Param        page_size  query int false "Page size"   default(20) maximum(100)
// @Router       /catalog/items [get]
func (h *CatalogHandler) ListItems(c *gin.Context) {
	var query appcatalog.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.catalog.GetCatalogPage(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// SearchItems godoc
// @Summary      Search active catalog items
// @Tags         catalog
// @Produce      json
// @Param        title              query string false "Case-insensitive title substring"
// @Param        issuing_method     query string false "Exact issuing method"
// @Param        sido               query string false "Province contained in the address"
// @Param        sgk                query string false "District contained in the address"
// @Param        emd                query string false "Neighbourhood contained in the address"
// @Param        price_from         query int    false "Minimum initial floor"
// @Param        price_to           query int    false "Maximum initial floor"
// @Param        appraised_from     query int    false "Minimum appraised value"
// @Param        appraised_to       query int    false "Maximum appraised value"
// @Param        announcement_from  query string false "yyyyMMddHHmmss"
// @Param        closes_until       query string false "yyyyMMddHHmmss"
// @Router       /catalog/items/search [get]
func (h *CatalogHandler) SearchItems(c *gin.Context) {
	var req appcatalog.SearchCatalogRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.catalog.SearchCatalog(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// GetItem godoc
// @Summary      Get one catalog item, including deactivated ones
// @Tags         catalog
// @Produce      json
// @Param        key  path string true "Natural key"
// @Router       /catalog/items/{key} [get]
func (h *CatalogHandler) GetItem(c *gin.Context) {
	item, err := h.catalog.GetCatalogItem(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// GetFloor returns the current floor price of an item
func (h *CatalogHandler) GetFloor(c *gin.Context) {
	floor, err := h.catalog.GetFloor(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, floor)
}

// ListBids returns the bid history of an item, newest first
func (h *CatalogHandler) ListBids(c *gin.Context) {
	var query appcatalog.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.bids.ListItemBids(c.Request.Context(), c.Param("key"), query.ToPageRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}
