package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"thrift/internal/catalog"
	"thrift/internal/marketplace"
	"thrift/internal/middleware"
	"thrift/internal/service"
	"thrift/models"
)

// ItemDetail is an item as seen by one viewer.
type ItemDetail struct {
	marketplace.ListingView
	Thread *models.ChatThread `json:"thread,omitempty"`
}

func (s *Server) itemSvc() *service.ItemService {
	if s.itemService == nil {
		s.itemService = service.NewItemService(s.itemRepo, s.userRepo)
	}
	return s.itemService
}

// GetColleges handles GET /api/colleges
// @Summary List residential colleges
// @Tags catalog
// @Produce json
// @Success 200 {array} string
// @Router /colleges [get]
func (s *Server) GetColleges(c *fiber.Ctx) error {
	out := make([]models.College, 0, len(models.Colleges)+1)
	out = append(out, models.AllColleges)
	out = append(out, models.Colleges...)
	return c.JSON(out)
}

// GetItems handles GET /api/items
// @Summary Browse listings
// @Description Filters and sorts available items for the viewer. Query parameters
// @Description override the viewer's saved filter for this request only.
// @Tags catalog
// @Produce json
// @Param q query string false "Search text"
// @Param college query string false "College or All"
// @Param max_distance query number false "Maximum distance in miles"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param sort query string false "newest, price_asc, price_desc or distance"
// @Success 200 {array} marketplace.ListingView
// @Failure 400 {object} models.ErrorResponse
// @Router /items [get]
func (s *Server) GetItems(c *fiber.Ctx) error {
	ctrl, err := s.controller(c)
	if err != nil {
		return nil
	}

	f, err := filterFromQuery(c, ctrl.Filter())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ctrl.Preview(f))
}

// filterFromQuery overlays the request's query parameters on base.
func filterFromQuery(c *fiber.Ctx, base catalog.Filter) (catalog.Filter, error) {
	f := base
	if q, ok := queryValue(c, "q"); ok {
		f.SearchText = q
	}
	if v, ok := queryValue(c, "college"); ok {
		college, err := parseCollegeFilter(v)
		if err != nil {
			return f, err
		}
		f.College = college
	}
	if v, ok := queryValue(c, "max_distance"); ok {
		miles, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return f, models.NewValidationError("Invalid max_distance")
		}
		if err := checkMaxDistance(miles); err != nil {
			return f, err
		}
		f.MaxDistanceMiles = miles
	}
	if v, ok := queryValue(c, "min_price"); ok {
		f.MinPrice = catalog.ParsePriceBound(v)
	}
	if v, ok := queryValue(c, "max_price"); ok {
		f.MaxPrice = catalog.ParsePriceBound(v)
	}
	if v, ok := queryValue(c, "sort"); ok {
		f.Sort = catalog.ParseSortKey(v)
	}
	return f, nil
}

func queryValue(c *fiber.Ctx, key string) (string, bool) {
	if !c.Context().QueryArgs().Has(key) {
		return "", false
	}
	return c.Query(key), true
}

// parseCollegeFilter accepts a known college, "All" or empty.
// checkMaxDistance rejects bounds that would switch the distance filter off.
func checkMaxDistance(miles float64) error {
	if !(miles > 0) || math.IsInf(miles, 1) {
		return models.NewValidationError("max_distance must be a positive number of miles")
	}
	return nil
}

func parseCollegeFilter(raw string) (models.College, error) {
	college := models.College(strings.TrimSpace(raw))
	if college == "" || strings.EqualFold(string(college), string(models.AllColleges)) {
		return models.AllColleges, nil
	}
	if !college.Known() {
		return "", models.NewValidationError("Unknown college")
	}
	return college, nil
}

// CreateItem handles POST /api/items
// @Summary Create a listing
// @Description The acting viewer becomes the seller. College and location come from their profile.
// @Tags catalog
// @Accept json
// @Produce json
// @Param request body object{name=string,description=string,price=number,tags=string,image_url=string} true "Listing"
// @Success 201 {object} models.Item
// @Failure 400 {object} models.ErrorResponse
// @Router /items [post]
func (s *Server) CreateItem(c *fiber.Ctx) error {
	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Tags        string  `json:"tags"`
		ImageURL    string  `json:"image_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	item, err := s.itemSvc().CreateListing(c.UserContext(), service.CreateListingInput{
		SellerID:    middleware.ViewerID(c),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Tags:        req.Tags,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// GetItem handles GET /api/items/:id
// @Summary Item detail
// @Description Sold items are still returned.
// @Tags catalog
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} ItemDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /items/{id} [get]
func (s *Server) GetItem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()

	item, err := s.itemSvc().GetItem(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	ctrl, err := s.controller(c)
	if err != nil {
		return nil
	}

	detail := ItemDetail{ListingView: marketplace.ListingView{
		Item:          *item,
		DistanceMiles: ctrl.Distance(item.Location),
		Wishlisted:    ctrl.IsWishlisted(item.ID),
	}}
	viewerID := middleware.ViewerID(c)
	if viewerID != item.SellerID {
		// A missing thread just means the viewer has not written yet.
		if thread, err := s.chatRepo.GetThread(ctx, item.ID, viewerID); err == nil {
			detail.Thread = thread
		}
	}
	return c.JSON(detail)
}

// UpdateItemStatus handles PUT /api/items/:id/status
// @Summary Mark an item sold or available
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path int true "Item ID"
// @Param request body object{status=string} true "New status"
// @Success 200 {object} models.Item
// @Failure 403 {object} models.ErrorResponse
// @Router /items/{id}/status [put]
func (s *Server) UpdateItemStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	item, err := s.itemSvc().UpdateStatus(c.UserContext(), middleware.ViewerID(c), id,
		models.ItemStatus(strings.ToLower(strings.TrimSpace(req.Status))))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}
