package services

import (
	"context"
	"log"
	"mime/multipart"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"warehouse-service/internal/apperr"
	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"
	"warehouse-service/internal/storage"
)

// ProfileUpdate carries the optional profile fields of an update request.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	BirthDate   *string
	Gender      *string
	Thumbnail   *multipart.FileHeader
}

// ProfileService manages the display profile attached 1:1 to each user.
type ProfileService struct {
	Repo  repository.ProfileRepository
	Store storage.ObjectStore
}

// NewProfileService creates a new ProfileService.
func NewProfileService(repo repository.ProfileRepository, store storage.ObjectStore) *ProfileService {
	return &ProfileService{Repo: repo, Store: store}
}

// Show returns the profile for a user.
func (s *ProfileService) Show(userID uint) (*models.Profile, error) {
	p, err := s.Repo.GetByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "profile not found")
		}
		return nil, apperr.Wrap(err, apperr.KindUnknown, "failed to load profile")
	}
	return p, nil
}

// Update upserts the user's profile. A new thumbnail replaces the old blob
// unless the profile still carries the "default" sentinel, which has no
// stored object behind it.
func (s *ProfileService) Update(ctx context.Context, userID uint, upd ProfileUpdate) (*models.Profile, error) {
	p, err := s.Repo.GetByUser(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(err, apperr.KindUnknown, "failed to load profile")
		}
		p = &models.Profile{UserID: userID, Thumbnail: models.DefaultThumbnail}
	}

	if upd.Thumbnail != nil {
		if p.Thumbnail != "" && p.Thumbnail != models.DefaultThumbnail {
			oldPath := storage.ProfileThumbnailPath(userID, p.Thumbnail)
			if err := s.Store.Delete(ctx, oldPath); err != nil {
				return nil, err
			}
		}
		src, err := upd.Thumbnail.Open()
		if err != nil {
			return nil, apperr.Wrap(errors.Wrap(err, "open thumbnail"), apperr.KindStorage, "could not read uploaded file")
		}
		path := storage.ProfileThumbnailPath(userID, upd.Thumbnail.Filename)
		url, putErr := s.Store.Put(ctx, path, src, upd.Thumbnail.Size, upd.Thumbnail.Header.Get("Content-Type"))
		src.Close()
		if putErr != nil {
			return nil, putErr
		}
		p.Thumbnail = upd.Thumbnail.Filename
		p.ThumbnailURL = url
	}

	if upd.DisplayName != nil {
		p.DisplayName = *upd.DisplayName
	}
	if upd.Bio != nil {
		p.Bio = *upd.Bio
	}
	if upd.BirthDate != nil {
		p.BirthDate = *upd.BirthDate
	}
	if upd.Gender != nil {
		p.Gender = *upd.Gender
	}

	if err := s.Repo.Save(p); err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "save profile"), apperr.KindUnknown, "failed to save profile")
	}
	log.Printf("Updated profile: user=%d", userID)
	return p, nil
}

// Search finds profiles by display-name substring.
func (s *ProfileService) Search(query string) ([]models.Profile, error) {
	profiles, err := s.Repo.SearchByDisplayName(query)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindUnknown, "failed to search profiles")
	}
	return profiles, nil
}
