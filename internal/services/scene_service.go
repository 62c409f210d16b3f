package services

import (
	"log"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"warehouse-service/internal/apperr"
	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"
)

// PlacementInput is one submitted item transform for a room scene.
// ParentIndex is a pointer because 0 is a valid scene-graph index: an
// absent field means "no parent", not index zero.
type PlacementInput struct {
	ItemID      uuid.UUID         `json:"item_id"`
	Position    models.Vector3    `json:"position"`
	Rotation    models.Quaternion `json:"rotation"`
	Scale       models.Vector3    `json:"scaling"`
	ParentIndex *int              `json:"parent_index"`
}

func (in PlacementInput) parentIndex() int {
	if in.ParentIndex == nil {
		return models.NoParent
	}
	return *in.ParentIndex
}

// PlacementResult tags what the reconciliation did with one placement.
type PlacementResult struct {
	ItemID uuid.UUID `json:"item_id"`
	Action string    `json:"action"` // "created" or "updated"
}

// SceneService reconciles a room's placements against submitted scene
// state, keeping at most one placement row per (room, item) pair.
type SceneService struct {
	Rooms      repository.RoomRepository
	Placements repository.PlacementRepository
}

// NewSceneService creates a new SceneService.
func NewSceneService(rooms repository.RoomRepository, placements repository.PlacementRepository) *SceneService {
	return &SceneService{Rooms: rooms, Placements: placements}
}

// ApplySnapshot treats the submitted placements as the authoritative scene
// content: rows for items missing from the snapshot are deleted, the rest
// are upserted. An empty snapshot clears the room.
func (s *SceneService) ApplySnapshot(roomID uuid.UUID, inputs []PlacementInput) ([]PlacementResult, []models.Placement, error) {
	if _, err := s.Rooms.GetRoom(roomID); err != nil {
		return nil, nil, roomLookupErr(err)
	}

	keep := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		keep = append(keep, in.ItemID)
	}
	if err := s.Placements.DeleteByRoomExcept(roomID, keep); err != nil {
		return nil, nil, apperr.Wrap(errors.Wrap(err, "delete omitted placements"), apperr.KindUnknown, "failed to update room")
	}

	results := make([]PlacementResult, 0, len(inputs))
	for _, in := range inputs {
		res, err := s.upsert(roomID, in)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, res)
	}

	rows, err := s.Placements.ListByRoom(roomID)
	if err != nil {
		return nil, nil, apperr.Wrap(errors.Wrap(err, "reload placements"), apperr.KindUnknown, "failed to update room")
	}
	log.Printf("Applied scene snapshot: room=%s, placements=%d", roomID, len(rows))
	return results, rows, nil
}

// ApplySingle upserts one placement without touching the rest of the room,
// used for incremental single-item moves.
func (s *SceneService) ApplySingle(roomID uuid.UUID, in PlacementInput) (PlacementResult, *models.Placement, error) {
	if _, err := s.Rooms.GetRoom(roomID); err != nil {
		return PlacementResult{}, nil, roomLookupErr(err)
	}

	res, err := s.upsert(roomID, in)
	if err != nil {
		return PlacementResult{}, nil, err
	}
	row, err := s.Placements.GetByRoomAndItem(roomID, in.ItemID)
	if err != nil {
		return PlacementResult{}, nil, apperr.Wrap(errors.Wrap(err, "reload placement"), apperr.KindUnknown, "failed to update room")
	}
	return res, row, nil
}

func (s *SceneService) upsert(roomID uuid.UUID, in PlacementInput) (PlacementResult, error) {
	existing, err := s.Placements.GetByRoomAndItem(roomID, in.ItemID)
	switch {
	case err == nil:
		existing.Position = in.Position
		existing.Rotation = in.Rotation
		existing.Scale = in.Scale
		existing.ParentIndex = in.parentIndex()
		if err := s.Placements.Update(existing); err != nil {
			return PlacementResult{}, apperr.Wrap(errors.Wrap(err, "update placement"), apperr.KindUnknown, "failed to update room")
		}
		return PlacementResult{ItemID: in.ItemID, Action: "updated"}, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		p := &models.Placement{
			RoomID:      roomID,
			ItemID:      in.ItemID,
			Position:    in.Position,
			Rotation:    in.Rotation,
			Scale:       in.Scale,
			ParentIndex: in.parentIndex(),
		}
		if err := s.Placements.Create(p); err != nil {
			return PlacementResult{}, apperr.Wrap(errors.Wrap(err, "create placement"), apperr.KindUnknown, "failed to update room")
		}
		return PlacementResult{ItemID: in.ItemID, Action: "created"}, nil

	default:
		return PlacementResult{}, apperr.Wrap(errors.Wrap(err, "lookup placement"), apperr.KindUnknown, "failed to update room")
	}
}

func roomLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.KindNotFound, "room not found")
	}
	return apperr.Wrap(err, apperr.KindUnknown, "failed to load room")
}
