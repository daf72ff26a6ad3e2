package server

import (
	"github.com/gofiber/fiber/v2"

	"thrift/internal/geo"
	"thrift/internal/marketplace"
	"thrift/internal/middleware"
	"thrift/internal/service"
	"thrift/models"
)

// ProfileResponse is the viewer's own profile with their saved items.
type ProfileResponse struct {
	*service.Profile
	Wishlist []marketplace.ListingView `json:"wishlist"`
}

func (s *Server) userSvc() *service.UserService {
	if s.userService == nil {
		s.userService = service.NewUserService(s.userRepo, s.itemRepo)
	}
	return s.userService
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userSvc().GetProfile(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetMyProfile handles GET /api/profile
// @Summary Viewer's profile
// @Description The viewer's listings and wishlist items, with distances.
// @Tags profile
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profile [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.userSvc().GetProfile(c.UserContext(), middleware.ViewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	ctrl, err := s.controller(c)
	if err != nil {
		return nil
	}
	return c.JSON(ProfileResponse{Profile: profile, Wishlist: ctrl.WishlistItems()})
}

// UpdateMyProfile handles PUT /api/profile
// @Summary Update the viewer's profile
// @Description Changing interests refreshes recommendations.
// @Tags profile
// @Accept json
// @Produce json
// @Param request body object{name=string,college=string,interests=string,location=geo.Point} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /profile [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Name      *string    `json:"name"`
		College   *string    `json:"college"`
		Interests *string    `json:"interests"`
		Location  *geo.Point `json:"location"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userSvc().UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:    middleware.ViewerID(c),
		Name:      req.Name,
		College:   req.College,
		Interests: req.Interests,
		Location:  req.Location,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
