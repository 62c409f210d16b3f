package storage

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// Object-store layout:
//
//	warehouse/{userID}/{itemID}/{originalName}   item assets and thumbnails
//	room/{userID}/{roomID}/thumbnail{ext}        room thumbnails
//	generated_models/{taskID}_{originalName}     staged generation artifacts
const (
	warehouseRoot = "warehouse"
	roomRoot      = "room"
	stagingRoot   = "generated_models"
)

// ItemPrefix returns the directory prefix holding every blob of one item.
func ItemPrefix(userID uint, itemID uuid.UUID) string {
	return fmt.Sprintf("%s/%d/%s/", warehouseRoot, userID, itemID)
}

// ItemObjectPath returns the full path for one file under an item's prefix.
func ItemObjectPath(userID uint, itemID uuid.UUID, name string) string {
	return ItemPrefix(userID, itemID) + name
}

// RoomThumbnailPath returns the room thumbnail path, ext including the dot.
func RoomThumbnailPath(userID uint, roomID uuid.UUID, ext string) string {
	return fmt.Sprintf("%s/%d/%s/thumbnail%s", roomRoot, userID, roomID, ext)
}

// RoomPrefix returns the directory prefix holding a room's blobs.
func RoomPrefix(userID uint, roomID uuid.UUID) string {
	return fmt.Sprintf("%s/%d/%s/", roomRoot, userID, roomID)
}

// ProfileThumbnailPath returns the profile avatar path for a user.
func ProfileThumbnailPath(userID uint, name string) string {
	return fmt.Sprintf("profile/%d/%s", userID, name)
}

// StagedModelName builds the task-prefixed staging file name. The task id
// prefix keeps repeated polls and concurrent tasks from colliding.
func StagedModelName(taskID, originalName string) string {
	return fmt.Sprintf("%s_%s", taskID, filepath.Base(originalName))
}

// StagedModelPath returns the full staging path for a staged artifact name.
func StagedModelPath(stagedName string) string {
	return stagingRoot + "/" + filepath.Base(stagedName)
}
