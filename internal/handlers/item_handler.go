package handlers

import (
	"io"
	"log"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"warehouse-service/internal/generation"
	"warehouse-service/internal/services"
)

const invalidItemIDError = "invalid item id"

// ItemHandler defines handlers for item upload, lifecycle and the 3D
// generation pipeline endpoints.
type ItemHandler struct {
	Items      *services.ItemService
	Generation *generation.Service
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(items *services.ItemService, gen *generation.Service) *ItemHandler {
	return &ItemHandler{Items: items, Generation: gen}
}

// ListItems handles GET /item/:user_id to list a user's items.
// @Summary List a user's items
// @Tags items
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {array} models.Item
// @Failure 400 {object} map[string]interface{} "Invalid user id"
// @Router /item/{user_id} [get]
func (h *ItemHandler) ListItems(c *fiber.Ctx) error {
	userID, err := parseUserID(c.Params("user_id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	items, err := h.Items.ListItems(userID)
	if err != nil {
		return respondError(c, err)
	}
	log.Printf("Listed %d items for user %d", len(items), userID)
	return c.JSON(items)
}

// UploadItem handles POST /item/upload to register a new item.
// @Summary Upload a new item
// @Description Upload a GLB asset with its thumbnail. The item row and both blobs are created atomically; any failure rolls the row back.
// @Tags items
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "GLB asset"
// @Param thumbnail formData file true "Thumbnail image"
// @Param user_id formData int true "Owner user ID"
// @Param name formData string true "Display name"
// @Param memo formData string false "Free-text memo"
// @Success 201 {object} models.Item
// @Failure 400 {object} map[string]interface{} "Missing fields"
// @Failure 422 {object} map[string]interface{} "Invalid GLB file"
// @Router /item/upload [post]
func (h *ItemHandler) UploadItem(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	thumbnail, err := c.FormFile("thumbnail")
	if err != nil {
		return badRequest(c, "thumbnail is required")
	}
	userID, err := parseUserID(c.FormValue("user_id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	name := c.FormValue("name")
	if name == "" {
		return badRequest(c, "name is required")
	}

	log.Printf("Uploading item: user=%d, file=%s (%d bytes)", userID, file.Filename, file.Size)
	item, err := h.Items.CreateItem(c.Context(), userID, name, c.FormValue("memo"), file, thumbnail)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "upload successful", "item": item})
}

// UpdateItem handles PUT /item/update/:item_id for partial updates.
// @Summary Update an item
// @Description Update name/memo and optionally replace the thumbnail. The old thumbnail blob is deleted before the new one is stored.
// @Tags items
// @Accept multipart/form-data
// @Produce json
// @Param item_id path string true "Item ID"
// @Param name formData string false "Display name"
// @Param memo formData string false "Free-text memo"
// @Param thumbnail formData file false "New thumbnail image"
// @Success 200 {object} models.Item
// @Failure 404 {object} map[string]interface{} "Item not found"
// @Router /item/update/{item_id} [put]
func (h *ItemHandler) UpdateItem(c *fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("item_id"))
	if err != nil {
		return badRequest(c, invalidItemIDError)
	}

	var name, memo *string
	if v := c.FormValue("name"); v != "" {
		name = &v
	}
	if v := c.FormValue("memo"); v != "" {
		memo = &v
	}
	thumbnail, err := c.FormFile("thumbnail")
	if err != nil {
		thumbnail = nil
	}

	item, err := h.Items.UpdateItem(c.Context(), itemID, name, memo, thumbnail)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "item updated", "item": item})
}

// DeleteItem handles DELETE /item/destroy/:item_id.
// @Summary Delete an item
// @Description Remove the item row, its placements and every blob under its storage prefix, all-or-nothing.
// @Tags items
// @Produce json
// @Param item_id path string true "Item ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "Item not found"
// @Router /item/destroy/{item_id} [delete]
func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("item_id"))
	if err != nil {
		return badRequest(c, invalidItemIDError)
	}
	if err := h.Items.DeleteItem(c.Context(), itemID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "item deleted"})
}

// CreateModel handles POST /item/create-3d to submit a generation job.
// @Summary Submit a 3D generation job
// @Tags generation
// @Accept multipart/form-data
// @Produce json
// @Param images formData file true "1 to 5 input images"
// @Param tier formData string true "Sketch or Regular"
// @Param remove_background formData bool false "Run background removal first"
// @Success 200 {object} generation.SubmitResult
// @Failure 422 {object} map[string]interface{} "Invalid input"
// @Router /item/create-3d [post]
func (h *ItemHandler) CreateModel(c *fiber.Ctx) error {
	images, err := formImages(c)
	if err != nil {
		return badRequest(c, "images are required")
	}
	removeBG, _ := strconv.ParseBool(c.FormValue("remove_background"))

	result, err := h.Generation.SubmitJob(c.Context(), images, c.FormValue("tier"), removeBG)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// CheckStatus handles POST /item/check-status to poll a generation job.
// @Summary Poll a generation job
// @Description Reports Done only once a model artifact has been staged; an upstream Done with no file yet comes back as Processing.
// @Tags generation
// @Accept json
// @Produce json
// @Success 200 {object} generation.PollResult
// @Failure 500 {object} map[string]interface{} "Upstream failure"
// @Router /item/check-status [post]
func (h *ItemHandler) CheckStatus(c *fiber.Ctx) error {
	var req struct {
		SubscriptionKey string `json:"subscription_key"`
		TaskID          string `json:"task_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.SubscriptionKey == "" || req.TaskID == "" {
		return badRequest(c, "subscription_key and task_id are required")
	}

	result, err := h.Generation.PollStatus(c.Context(), req.SubscriptionKey, req.TaskID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// PreviewModel handles GET /item/preview-model/:filename to stream a
// staged model binary.
// @Summary Download a staged model for preview
// @Tags generation
// @Produce application/octet-stream
// @Param filename path string true "Staged artifact name"
// @Success 200 {file} binary "GLB file"
// @Failure 404 {object} map[string]interface{} "Not staged"
// @Router /item/preview-model/{filename} [get]
func (h *ItemHandler) PreviewModel(c *fiber.Ctx) error {
	filename := c.Params("filename")
	data, err := h.Items.PreviewModel(c.Context(), filename)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "model/gltf-binary")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Status(fiber.StatusOK).Send(data)
}

// AdoptGenerated handles POST /item/rodin-upload to turn a staged
// generation artifact into a permanent item.
// @Summary Adopt a staged model as an item
// @Tags generation
// @Accept multipart/form-data
// @Produce json
// @Param filename formData string true "Staged artifact name"
// @Param user_id formData int true "Owner user ID"
// @Param name formData string true "Display name"
// @Param memo formData string false "Free-text memo"
// @Param thumbnail formData file true "Thumbnail image"
// @Success 201 {object} models.Item
// @Failure 404 {object} map[string]interface{} "Staged artifact not found"
// @Router /item/rodin-upload [post]
func (h *ItemHandler) AdoptGenerated(c *fiber.Ctx) error {
	filename := c.FormValue("filename")
	if filename == "" {
		return badRequest(c, "filename is required")
	}
	userID, err := parseUserID(c.FormValue("user_id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	name := c.FormValue("name")
	if name == "" {
		return badRequest(c, "name is required")
	}
	thumbnail, err := c.FormFile("thumbnail")
	if err != nil {
		return badRequest(c, "thumbnail is required")
	}

	log.Printf("Adopting staged model: file=%s, user=%d", filename, userID)
	item, err := h.Items.AdoptStaged(c.Context(), filename, userID, name, c.FormValue("memo"), thumbnail)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "upload successful", "item": item})
}

// RemoveBackground handles POST /item/remove-background.
// @Summary Remove image backgrounds
// @Tags generation
// @Accept multipart/form-data
// @Produce json
// @Param images formData file true "1 to 5 input images"
// @Success 200 {object} map[string]interface{} "Processed PNGs as data URLs"
// @Router /item/remove-background [post]
func (h *ItemHandler) RemoveBackground(c *fiber.Ctx) error {
	images, err := formImages(c)
	if err != nil {
		return badRequest(c, "images are required")
	}
	processed, err := h.Generation.RemoveBackgroundBatch(c.Context(), images)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"images": processed})
}

// formImages reads the "images" multipart files into memory.
func formImages(c *fiber.Ctx) ([]generation.ImagePart, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	files := form.File["images"]
	if len(files) == 0 {
		return nil, fiber.ErrBadRequest
	}
	parts := make([]generation.ImagePart, 0, len(files))
	for _, fh := range files {
		data, err := readAll(fh)
		if err != nil {
			return nil, err
		}
		parts = append(parts, generation.ImagePart{Name: fh.Filename, Data: data})
	}
	return parts, nil
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func parseUserID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
