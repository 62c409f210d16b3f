package services

import (
	"context"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"warehouse-service/internal/apperr"
	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"
	"warehouse-service/internal/storage"
)

const defaultRoomName = "Sample Room"

// RoomView is the composed read model for studio and mainstage views.
type RoomView struct {
	Room      *models.Room `json:"room"`
	LikeCount int64        `json:"like_count"`
}

// RoomService manages rooms, their thumbnails, comments and likes.
type RoomService struct {
	Rooms  repository.RoomRepository
	Social repository.RoomSocialRepository
	Store  storage.ObjectStore
}

// NewRoomService creates a new RoomService.
func NewRoomService(rooms repository.RoomRepository, social repository.RoomSocialRepository,
	store storage.ObjectStore) *RoomService {
	return &RoomService{Rooms: rooms, Social: social, Store: store}
}

// RoomsForUser returns all rooms owned by the user (at most one in the
// current design, but the read stays list-shaped).
func (s *RoomService) RoomsForUser(userID uint) ([]models.Room, error) {
	rooms, err := s.Rooms.ListRoomsByUser(userID)
	if err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "list rooms"), apperr.KindUnknown, "failed to load rooms")
	}
	return rooms, nil
}

// CreateRoom creates the user's room or returns the existing one. First
// call wins; the boolean reports whether a new room was created.
func (s *RoomService) CreateRoom(userID uint) (*models.Room, bool, error) {
	existing, err := s.Rooms.FirstRoomByUser(userID)
	if err == nil {
		log.Printf("Room already exists: user=%d, room=%s", userID, existing.ID)
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperr.Wrap(errors.Wrap(err, "lookup room"), apperr.KindUnknown, "failed to create room")
	}

	room := &models.Room{UserID: userID, Name: defaultRoomName}
	if err := s.Rooms.CreateRoom(room); err != nil {
		return nil, false, apperr.Wrap(errors.Wrap(err, "create room"), apperr.KindUnknown, "failed to create room")
	}
	log.Printf("Created room: user=%d, room=%s", userID, room.ID)
	return room, true, nil
}

// RoomWithRelations loads a room with placements, items, comments and the
// like count as one composed structure.
func (s *RoomService) RoomWithRelations(roomID uuid.UUID) (*RoomView, error) {
	room, err := s.Rooms.LoadRoomWithRelations(roomID)
	if err != nil {
		return nil, roomLookupErr(err)
	}
	likes, err := s.Social.CountLikes(roomID)
	if err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "count likes"), apperr.KindUnknown, "failed to load room")
	}
	return &RoomView{Room: room, LikeCount: likes}, nil
}

// ReplaceThumbnail swaps the room thumbnail: the previous blob is deleted
// before the new one is stored so a single thumbnail stays live per room.
func (s *RoomService) ReplaceThumbnail(ctx context.Context, roomID uuid.UUID, fh *multipart.FileHeader) (*models.Room, error) {
	room, err := s.Rooms.GetRoom(roomID)
	if err != nil {
		return nil, roomLookupErr(err)
	}

	if room.Thumbnail != "" {
		oldPath := storage.RoomThumbnailPath(room.UserID, room.ID, filepath.Ext(room.Thumbnail))
		if err := s.Store.Delete(ctx, oldPath); err != nil {
			return nil, err
		}
	}

	src, err := fh.Open()
	if err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "open thumbnail"), apperr.KindStorage, "could not read uploaded file")
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	path := storage.RoomThumbnailPath(room.UserID, room.ID, ext)
	url, err := s.Store.Put(ctx, path, src, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	room.Thumbnail = "thumbnail" + ext
	room.ThumbnailURL = url
	if err := s.Rooms.UpdateRoom(room); err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "update room row"), apperr.KindUnknown, "failed to update room")
	}
	log.Printf("Replaced room thumbnail: room=%s, path=%s", room.ID, path)
	return room, nil
}

// AddComment stores a new comment on the room.
func (s *RoomService) AddComment(roomID uuid.UUID, userID uint, body string) (*models.RoomComment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperr.New(apperr.KindValidation, "comment body is required")
	}
	if _, err := s.Rooms.GetRoom(roomID); err != nil {
		return nil, roomLookupErr(err)
	}

	comment := &models.RoomComment{RoomID: roomID, UserID: userID, Body: body}
	if err := s.Social.CreateComment(comment); err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "create comment"), apperr.KindUnknown, "failed to save comment")
	}
	return comment, nil
}

// DeleteComment removes a comment. Only its author may delete it.
func (s *RoomService) DeleteComment(commentID uuid.UUID, actingUserID uint) error {
	comment, err := s.Social.GetComment(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.KindNotFound, "comment not found")
		}
		return apperr.Wrap(err, apperr.KindUnknown, "failed to load comment")
	}
	if comment.UserID != actingUserID {
		return apperr.New(apperr.KindAuthorization, "cannot delete another user's comment")
	}
	if err := s.Social.DeleteComment(commentID); err != nil {
		return apperr.Wrap(errors.Wrap(err, "delete comment"), apperr.KindUnknown, "failed to delete comment")
	}
	return nil
}

// Like records that the user likes the room. Liking twice is a no-op.
func (s *RoomService) Like(roomID uuid.UUID, userID uint) error {
	if _, err := s.Rooms.GetRoom(roomID); err != nil {
		return roomLookupErr(err)
	}
	_, err := s.Social.GetLike(roomID, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(err, apperr.KindUnknown, "failed to save like")
	}
	if err := s.Social.CreateLike(&models.RoomLike{RoomID: roomID, UserID: userID}); err != nil {
		return apperr.Wrap(errors.Wrap(err, "create like"), apperr.KindUnknown, "failed to save like")
	}
	return nil
}

// Dislike removes the user's like from the room if present.
func (s *RoomService) Dislike(roomID uuid.UUID, userID uint) error {
	if _, err := s.Rooms.GetRoom(roomID); err != nil {
		return roomLookupErr(err)
	}
	if err := s.Social.DeleteLike(roomID, userID); err != nil {
		return apperr.Wrap(errors.Wrap(err, "delete like"), apperr.KindUnknown, "failed to remove like")
	}
	return nil
}
