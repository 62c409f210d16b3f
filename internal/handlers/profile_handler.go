package handlers

import (
	"github.com/gofiber/fiber/v2"

	"warehouse-service/internal/services"
)

// ProfileHandler defines handlers for user display profiles.
type ProfileHandler struct {
	Profiles *services.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles}
}

// Show handles GET /profile/show/:user_id.
// @Summary Show a user's profile
// @Tags profiles
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} models.Profile
// @Failure 404 {object} map[string]interface{} "Profile not found"
// @Router /profile/show/{user_id} [get]
func (h *ProfileHandler) Show(c *fiber.Ctx) error {
	userID, err := parseUserID(c.Params("user_id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	profile, err := h.Profiles.Show(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// Update handles PUT /profile/update/:user_id, upserting the profile.
// @Summary Update a user's profile
// @Tags profiles
// @Accept multipart/form-data
// @Produce json
// @Param user_id path int true "User ID"
// @Param display_name formData string false "Display name"
// @Param bio formData string false "Bio"
// @Param birth_date formData string false "Birth date"
// @Param gender formData string false "Gender"
// @Param thumbnail formData file false "Avatar image"
// @Success 200 {object} models.Profile
// @Router /profile/update/{user_id} [put]
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	userID, err := parseUserID(c.Params("user_id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var upd services.ProfileUpdate
	if v := c.FormValue("display_name"); v != "" {
		upd.DisplayName = &v
	}
	if v := c.FormValue("bio"); v != "" {
		upd.Bio = &v
	}
	if v := c.FormValue("birth_date"); v != "" {
		upd.BirthDate = &v
	}
	if v := c.FormValue("gender"); v != "" {
		upd.Gender = &v
	}
	if thumbnail, err := c.FormFile("thumbnail"); err == nil {
		upd.Thumbnail = thumbnail
	}

	profile, err := h.Profiles.Update(c.Context(), userID, upd)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "profile updated", "profile": profile})
}

// Search handles GET /profile/search?q= by display-name substring.
// @Summary Search profiles
// @Tags profiles
// @Produce json
// @Param q query string true "Display-name substring"
// @Success 200 {array} models.Profile
// @Router /profile/search [get]
func (h *ProfileHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return badRequest(c, "q is required")
	}
	profiles, err := h.Profiles.Search(query)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profiles)
}
