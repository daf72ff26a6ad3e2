package server

import (
	"github.com/gofiber/fiber/v2"

	"thrift/internal/catalog"
	"thrift/internal/marketplace"
	"thrift/models"
)

// filterRequest is a partial filter update. Absent fields keep their value.
// Prices are free text: anything that is not a non-negative number clears the bound.
type filterRequest struct {
	SearchText       *string  `json:"search_text"`
	College          *string  `json:"college"`
	MaxDistanceMiles *float64 `json:"max_distance_miles"`
	MinPrice         *string  `json:"min_price"`
	MaxPrice         *string  `json:"max_price"`
	Sort             *string  `json:"sort"`
}

func (r filterRequest) apply(f catalog.Filter) (catalog.Filter, error) {
	if r.SearchText != nil {
		f.SearchText = *r.SearchText
	}
	if r.College != nil {
		college, err := parseCollegeFilter(*r.College)
		if err != nil {
			return f, err
		}
		f.College = college
	}
	if r.MaxDistanceMiles != nil {
		if err := checkMaxDistance(*r.MaxDistanceMiles); err != nil {
			return f, err
		}
		f.MaxDistanceMiles = *r.MaxDistanceMiles
	}
	if r.MinPrice != nil {
		f.MinPrice = catalog.ParsePriceBound(*r.MinPrice)
	}
	if r.MaxPrice != nil {
		f.MaxPrice = catalog.ParsePriceBound(*r.MaxPrice)
	}
	if r.Sort != nil {
		f.Sort = catalog.ParseSortKey(*r.Sort)
	}
	return f, nil
}

// GetMarketplace handles GET /api/marketplace
// @Summary Viewer's marketplace state
// @Tags marketplace
// @Produce json
// @Success 200 {object} marketplace.State
// @Router /marketplace [get]
func (s *Server) GetMarketplace(c *fiber.Ctx) error {
	ctrl, err := s.controller(c)
	if err != nil {
		return nil
	}
	return c.JSON(ctrl.State())
}

// UpdateFilters handles PUT /api/marketplace/filters
// @Summary Update the viewer's filter
// @Tags marketplace
// @Accept json
// @Produce json
// @Success 200 {object} marketplace.State
// @Failure 400 {object} models.ErrorResponse
// @Router /marketplace/filters [put]
func (s *Server) UpdateFilters(c *fiber.Ctx) error {
	var req filterRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	ctrl, err := s.controller(c)
	if err != nil {
		return nil
	}
	if err := applyFilter(ctrl, req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(ctrl.State())
}

func applyFilter(ctrl *marketplace.Controller, req filterRequest) error {
	f, err := req.apply(ctrl.Filter())
	if err != nil {
		return err
	}
	ctrl.SetFilter(f)
	return nil
}

// RecommendationsResponse is the current recommendation result.
type RecommendationsResponse struct {
	Recommendations []marketplace.ListingView `json:"recommendations"`
	Loading         bool                      `json:"loading"`
	Enabled         bool                      `json:"enabled"`
}

func (s *Server) recommendations(ctrl *marketplace.Controller) RecommendationsResponse {
	recs, loading := ctrl.Recommendations()
	return RecommendationsResponse{
		Recommendations: recs,
		Loading:         loading,
		Enabled:         s.reconciler != nil && s.reconciler.Enabled(),
	}
}

// GetRecommendations handles GET /api/recommendations
// @Summary Current recommendations
// @Tags marketplace
// @Produce json
// @Success 200 {object} RecommendationsResponse
// @Router /recommendations [get]
func (s *Server) GetRecommendations(c *fiber.Ctx) error {
	ctrl, err := s.controller(c)
	if err != nil {
		return nil
	}
	return c.JSON(s.recommendations(ctrl))
}

// RefreshRecommendations handles POST /api/recommendations/refresh
func (s *Server) RefreshRecommendations(c *fiber.Ctx) error {
	ctrl, err := s.controller(c)
	if err != nil {
		return nil
	}
	ctrl.Refresh()
	return c.Status(fiber.StatusAccepted).JSON(s.recommendations(ctrl))
}

// WishlistResponse lists saved ids and the saved items that are still for sale.
type WishlistResponse struct {
	IDs   []uint                    `json:"ids"`
	Items []marketplace.ListingView `json:"items"`
}

// GetWishlist handles GET /api/wishlist
// @Summary Viewer's wishlist
// @Tags wishlist
// @Produce json
// @Success 200 {object} WishlistResponse
// @Router /wishlist [get]
func (s *Server) GetWishlist(c *fiber.Ctx) error {
	ctrl, err := s.controller(c)
	if err != nil {
		return nil
	}
	return c.JSON(wishlistResponse(ctrl))
}

func wishlistResponse(ctrl *marketplace.Controller) WishlistResponse {
	saved := ctrl.WishlistItems()
	available := make([]marketplace.ListingView, 0, len(saved))
	for _, v := range saved {
		if v.IsAvailable() {
			available = append(available, v)
		}
	}
	return WishlistResponse{IDs: ctrl.State().Wishlist, Items: available}
}

// ToggleWishlist handles POST /api/wishlist/:id/toggle
// @Summary Add or remove an item from the wishlist
// @Tags wishlist
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} object{item_id=int,wishlisted=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /wishlist/{id}/toggle [post]
func (s *Server) ToggleWishlist(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.itemSvc().GetItem(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	ctrl, err := s.controller(c)
	if err != nil {
		return nil
	}
	return c.JSON(fiber.Map{
		"item_id":    id,
		"wishlisted": ctrl.ToggleWishlist(c.UserContext(), id),
	})
}
