package handlers

import (
	"bytes"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"warehouse-service/internal/services"
)

const invalidRoomIDError = "invalid room id"

// RoomHandler defines handlers for rooms, scene placement updates,
// comments and likes.
type RoomHandler struct {
	Rooms *services.RoomService
	Scene *services.SceneService
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(rooms *services.RoomService, scene *services.SceneService) *RoomHandler {
	return &RoomHandler{Rooms: rooms, Scene: scene}
}

// ListRooms handles GET /room/:user_id.
// @Summary List a user's rooms
// @Tags rooms
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} map[string]interface{} "exist_flg plus rooms"
// @Router /room/{user_id} [get]
func (h *RoomHandler) ListRooms(c *fiber.Ctx) error {
	userID, err := parseUserID(c.Params("user_id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}
	rooms, err := h.Rooms.RoomsForUser(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"exist_flg": len(rooms) > 0, "rooms": rooms})
}

// CreateRoom handles POST /room/create. Creation is idempotent per user:
// an existing room is returned with 200, a fresh one with 201.
// @Summary Create the user's room
// @Tags rooms
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Room already existed"
// @Success 201 {object} map[string]interface{} "Room created"
// @Router /room/create [post]
func (h *RoomHandler) CreateRoom(c *fiber.Ctx) error {
	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return badRequest(c, "user_id is required")
	}

	room, created, err := h.Rooms.CreateRoom(req.UserID)
	if err != nil {
		return respondError(c, err)
	}
	if !created {
		return c.JSON(fiber.Map{"message": "room already exists", "room": room})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "room created", "room": room})
}

// ShowRoom handles GET /room/studio/:room_id and GET /room/mainstage/:room_id,
// both serving the composed room view.
// @Summary Load a room with its placements, items, comments and like count
// @Tags rooms
// @Produce json
// @Param room_id path string true "Room ID"
// @Success 200 {object} services.RoomView
// @Failure 404 {object} map[string]interface{} "Room not found"
// @Router /room/studio/{room_id} [get]
func (h *RoomHandler) ShowRoom(c *fiber.Ctx) error {
	roomID, err := uuid.Parse(c.Params("room_id"))
	if err != nil {
		return badRequest(c, invalidRoomIDError)
	}
	view, err := h.Rooms.RoomWithRelations(roomID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// UpdatePlacements handles PUT /room/update/:room_id. Two historical body
// shapes are accepted: a JSON array is a full authoritative snapshot
// (upsert + delete-missing), a single JSON object is an incremental
// upsert that leaves the rest of the scene alone.
// @Summary Update item placements in a room
// @Tags rooms
// @Accept json
// @Produce json
// @Param room_id path string true "Room ID"
// @Success 200 {object} map[string]interface{} "Per-placement results and rows"
// @Failure 404 {object} map[string]interface{} "Room not found"
// @Router /room/update/{room_id} [put]
func (h *RoomHandler) UpdatePlacements(c *fiber.Ctx) error {
	roomID, err := uuid.Parse(c.Params("room_id"))
	if err != nil {
		return badRequest(c, invalidRoomIDError)
	}

	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return badRequest(c, "request body is required")
	}

	switch body[0] {
	case '[':
		var inputs []services.PlacementInput
		if err := json.Unmarshal(body, &inputs); err != nil {
			return badRequest(c, "malformed placement snapshot")
		}
		results, rows, err := h.Scene.ApplySnapshot(roomID, inputs)
		if err != nil {
			return respondError(c, err)
		}
		log.Printf("Updated room scene: room=%s, placements=%d", roomID, len(rows))
		return c.JSON(fiber.Map{"results": results, "placements": rows})

	case '{':
		var input services.PlacementInput
		if err := json.Unmarshal(body, &input); err != nil {
			return badRequest(c, "malformed placement")
		}
		result, row, err := h.Scene.ApplySingle(roomID, input)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"results": []services.PlacementResult{result}, "placements": []interface{}{row}})

	default:
		return badRequest(c, "placement body must be a JSON object or array")
	}
}

// UploadThumbnail handles POST /room/upload/thumbnail/:room_id.
// @Summary Replace the room thumbnail
// @Tags rooms
// @Accept multipart/form-data
// @Produce json
// @Param room_id path string true "Room ID"
// @Param thumbnail formData file true "Thumbnail image"
// @Success 200 {object} models.Room
// @Failure 404 {object} map[string]interface{} "Room not found"
// @Router /room/upload/thumbnail/{room_id} [post]
func (h *RoomHandler) UploadThumbnail(c *fiber.Ctx) error {
	roomID, err := uuid.Parse(c.Params("room_id"))
	if err != nil {
		return badRequest(c, invalidRoomIDError)
	}
	thumbnail, err := c.FormFile("thumbnail")
	if err != nil {
		return badRequest(c, "thumbnail is required")
	}
	room, err := h.Rooms.ReplaceThumbnail(c.Context(), roomID, thumbnail)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "thumbnail updated", "room": room})
}

// StoreComment handles POST /room/comment/store/:room_id.
// @Summary Comment on a room
// @Tags rooms
// @Accept json
// @Produce json
// @Param room_id path string true "Room ID"
// @Success 201 {object} models.RoomComment
// @Router /room/comment/store/{room_id} [post]
func (h *RoomHandler) StoreComment(c *fiber.Ctx) error {
	roomID, err := uuid.Parse(c.Params("room_id"))
	if err != nil {
		return badRequest(c, invalidRoomIDError)
	}
	var req struct {
		UserID uint   `json:"user_id"`
		Body   string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return badRequest(c, "user_id and body are required")
	}

	comment, err := h.Rooms.AddComment(roomID, req.UserID, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "comment saved", "comment": comment})
}

// DestroyComment handles DELETE /room/comment/destroy/:comment_id.
// Only the comment's author may delete it.
// @Summary Delete a room comment
// @Tags rooms
// @Produce json
// @Param comment_id path string true "Comment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{} "Not the author"
// @Router /room/comment/destroy/{comment_id} [delete]
func (h *RoomHandler) DestroyComment(c *fiber.Ctx) error {
	commentID, err := uuid.Parse(c.Params("comment_id"))
	if err != nil {
		return badRequest(c, "invalid comment id")
	}
	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return badRequest(c, "user_id is required")
	}

	if err := h.Rooms.DeleteComment(commentID, req.UserID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "comment deleted"})
}

// Like handles POST /room/like/:room_id; liking twice is a no-op.
// @Summary Like a room
// @Tags rooms
// @Produce json
// @Param room_id path string true "Room ID"
// @Success 200 {object} map[string]interface{}
// @Router /room/like/{room_id} [post]
func (h *RoomHandler) Like(c *fiber.Ctx) error {
	return h.applyLike(c, true)
}

// Dislike handles POST /room/dislike/:room_id, removing the user's like.
// @Summary Remove a like from a room
// @Tags rooms
// @Produce json
// @Param room_id path string true "Room ID"
// @Success 200 {object} map[string]interface{}
// @Router /room/dislike/{room_id} [post]
func (h *RoomHandler) Dislike(c *fiber.Ctx) error {
	return h.applyLike(c, false)
}

func (h *RoomHandler) applyLike(c *fiber.Ctx, like bool) error {
	roomID, err := uuid.Parse(c.Params("room_id"))
	if err != nil {
		return badRequest(c, invalidRoomIDError)
	}
	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return badRequest(c, "user_id is required")
	}

	if like {
		err = h.Rooms.Like(roomID, req.UserID)
	} else {
		err = h.Rooms.Dislike(roomID, req.UserID)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "ok"})
}
