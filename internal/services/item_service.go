package services

import (
	"bytes"
	"context"
	"log"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"warehouse-service/internal/apperr"
	"warehouse-service/internal/metrics"
	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"
	"warehouse-service/internal/storage"
	"warehouse-service/internal/validation"
)

const glbContentType = "model/gltf-binary"

// ItemService orchestrates item uploads: GLB validation, row creation,
// blob storage under the item's warehouse prefix, and rollback when any
// step after row creation fails.
type ItemService struct {
	Repo       repository.ItemRepository
	Placements repository.PlacementRepository
	Store      storage.ObjectStore
	Cache      *storage.PreviewCache
	Metrics    *metrics.Metrics
	db         *gorm.DB
}

// NewItemService creates a new ItemService. The db handle is used for the
// delete transaction spanning placements, blobs and the item row.
func NewItemService(db *gorm.DB, repo repository.ItemRepository, placements repository.PlacementRepository,
	store storage.ObjectStore, cache *storage.PreviewCache, m *metrics.Metrics) *ItemService {
	return &ItemService{
		Repo:       repo,
		Placements: placements,
		Store:      store,
		Cache:      cache,
		Metrics:    m,
		db:         db,
	}
}

// ListItems returns all items owned by the user.
func (s *ItemService) ListItems(userID uint) ([]models.Item, error) {
	return s.Repo.ListItemsByUser(userID)
}

// GetItem returns one item by id.
func (s *ItemService) GetItem(id uuid.UUID) (*models.Item, error) {
	item, err := s.Repo.GetItem(id)
	if err != nil {
		return nil, itemLookupErr(err)
	}
	return item, nil
}

// CreateItem registers a new item and stores its primary GLB and thumbnail.
// The row is created first so the generated id can seed the storage path;
// any later failure deletes the row again so no partial item survives.
func (s *ItemService) CreateItem(ctx context.Context, userID uint, name, memo string,
	file, thumbnail *multipart.FileHeader) (*models.Item, error) {
	if err := validation.ValidateGLB(file); err != nil {
		return nil, err
	}

	start := time.Now()
	item := &models.Item{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Memo:      memo,
		TotalSize: file.Size,
		Filename:  file.Filename,
		Thumbnail: thumbnail.Filename,
	}
	if err := s.Repo.CreateItem(item); err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "create item row"), apperr.KindUnknown, "failed to save item")
	}

	fileURL, err := s.putUpload(ctx, item, file, glbContentType)
	if err != nil {
		return nil, s.rollbackCreate(item, err)
	}
	item.FileURL = fileURL

	thumbURL, err := s.putUpload(ctx, item, thumbnail, thumbnail.Header.Get("Content-Type"))
	if err != nil {
		return nil, s.rollbackCreate(item, err)
	}
	item.ThumbnailURL = thumbURL

	if err := s.Repo.UpdateItem(item); err != nil {
		return nil, s.rollbackCreate(item, apperr.Wrap(errors.Wrap(err, "update item row"), apperr.KindUnknown, "failed to save item"))
	}

	s.Metrics.ItemUploaded()
	s.Metrics.ObserveUploadLatency(float64(time.Since(start).Milliseconds()))
	log.Printf("Created item: ID=%s, User=%d, File=%s (%d bytes)", item.ID, userID, item.Filename, item.TotalSize)
	return item, nil
}

// CreateItemFromBytes runs the CreateItem path with an in-memory primary
// file, used when adopting a staged generation artifact.
func (s *ItemService) CreateItemFromBytes(ctx context.Context, userID uint, name, memo, filename string,
	data []byte, thumbnail *multipart.FileHeader) (*models.Item, error) {
	if err := validation.ValidateGLBBytes(data, filename); err != nil {
		return nil, err
	}

	item := &models.Item{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Memo:      memo,
		TotalSize: int64(len(data)),
		Filename:  filename,
		Thumbnail: thumbnail.Filename,
	}
	if err := s.Repo.CreateItem(item); err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "create item row"), apperr.KindUnknown, "failed to save item")
	}

	path := storage.ItemObjectPath(userID, item.ID, filename)
	fileURL, err := s.Store.Put(ctx, path, bytes.NewReader(data), int64(len(data)), glbContentType)
	if err != nil {
		return nil, s.rollbackCreate(item, err)
	}
	item.FileURL = fileURL

	thumbURL, err := s.putUpload(ctx, item, thumbnail, thumbnail.Header.Get("Content-Type"))
	if err != nil {
		return nil, s.rollbackCreate(item, err)
	}
	item.ThumbnailURL = thumbURL

	if err := s.Repo.UpdateItem(item); err != nil {
		return nil, s.rollbackCreate(item, apperr.Wrap(errors.Wrap(err, "update item row"), apperr.KindUnknown, "failed to save item"))
	}

	s.Metrics.ItemUploaded()
	log.Printf("Created item from staged bytes: ID=%s, User=%d, File=%s", item.ID, userID, filename)
	return item, nil
}

// UpdateItem applies a partial update. A new thumbnail replaces the old
// blob: the previous one is deleted before the new one is stored so a
// single thumbnail stays live per item.
func (s *ItemService) UpdateItem(ctx context.Context, itemID uuid.UUID, name, memo *string,
	thumbnail *multipart.FileHeader) (*models.Item, error) {
	item, err := s.Repo.GetItem(itemID)
	if err != nil {
		return nil, itemLookupErr(err)
	}

	if thumbnail != nil {
		if item.Thumbnail != "" {
			oldPath := storage.ItemObjectPath(item.UserID, item.ID, item.Thumbnail)
			if err := s.Store.Delete(ctx, oldPath); err != nil {
				return nil, err
			}
			log.Printf("Deleted old thumbnail: %s", oldPath)
		}
		url, err := s.putUpload(ctx, item, thumbnail, thumbnail.Header.Get("Content-Type"))
		if err != nil {
			return nil, err
		}
		item.Thumbnail = thumbnail.Filename
		item.ThumbnailURL = url
	}

	if name != nil {
		item.Name = *name
	}
	if memo != nil {
		item.Memo = *memo
	}

	if err := s.Repo.UpdateItem(item); err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "update item row"), apperr.KindUnknown, "failed to update item")
	}
	log.Printf("Updated item: ID=%s", item.ID)
	return item, nil
}

// DeleteItem removes the item row, its placements and every blob under its
// storage prefix. The relational part runs in one transaction: a blob
// deletion failure rolls back the row and placement deletes.
func (s *ItemService) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	item, err := s.Repo.GetItem(itemID)
	if err != nil {
		return itemLookupErr(err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Placement{}, "item_id = ?", itemID).Error; err != nil {
			return errors.Wrap(err, "delete placements")
		}
		prefix := storage.ItemPrefix(item.UserID, item.ID)
		if _, err := s.Store.DeleteAll(ctx, prefix); err != nil {
			return err
		}
		if err := tx.Delete(&models.Item{}, "id = ?", itemID).Error; err != nil {
			return errors.Wrap(err, "delete item row")
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return err
		}
		return apperr.Wrap(err, apperr.KindUnknown, "failed to delete item")
	}

	s.Metrics.ItemDeleted()
	log.Printf("Deleted item: ID=%s, User=%d", item.ID, item.UserID)
	return nil
}

// AdoptStaged turns a staged generation artifact into a permanent item.
// The staging object is removed only after the item is fully created, so a
// failed adoption stays retryable.
func (s *ItemService) AdoptStaged(ctx context.Context, stagedName string, userID uint, name, memo string,
	thumbnail *multipart.FileHeader) (*models.Item, error) {
	data, err := s.Store.Get(ctx, storage.StagedModelPath(stagedName))
	if err != nil {
		return nil, err
	}

	item, err := s.CreateItemFromBytes(ctx, userID, name, memo, stagedName, data, thumbnail)
	if err != nil {
		return nil, err
	}

	if err := s.Store.Delete(ctx, storage.StagedModelPath(stagedName)); err != nil {
		// The item exists; a leftover staging object is only wasted space.
		log.Printf("Failed to remove staging object %s after adoption: %v", stagedName, err)
	}
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, stagedName); err != nil {
			log.Printf("Failed to invalidate preview cache for %s: %v", stagedName, err)
		}
	}
	return item, nil
}

// PreviewModel returns the raw bytes of a staged model, serving from the
// Redis cache when possible.
func (s *ItemService) PreviewModel(ctx context.Context, stagedName string) ([]byte, error) {
	if s.Cache != nil {
		data, err := s.Cache.GetBytes(ctx, stagedName)
		if err != nil {
			log.Printf("Preview cache error for %s: %v", stagedName, err)
		}
		if data != nil {
			s.Metrics.PreviewCacheHit()
			return data, nil
		}
	}
	s.Metrics.PreviewCacheMiss()

	data, err := s.Store.Get(ctx, storage.StagedModelPath(stagedName))
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if err := s.Cache.SetBytes(ctx, stagedName, data); err != nil {
			log.Printf("Failed to cache preview for %s: %v", stagedName, err)
		}
	}
	return data, nil
}

// putUpload streams one multipart upload into the item's storage prefix.
func (s *ItemService) putUpload(ctx context.Context, item *models.Item, fh *multipart.FileHeader, contentType string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", apperr.Wrap(errors.Wrap(err, "open upload"), apperr.KindStorage, "could not read uploaded file")
	}
	defer src.Close()

	path := storage.ItemObjectPath(item.UserID, item.ID, fh.Filename)
	return s.Store.Put(ctx, path, src, fh.Size, contentType)
}

// rollbackCreate deletes the item row created earlier in a failed upload.
// Blobs written before the failure may survive; that is logged, not hidden.
func (s *ItemService) rollbackCreate(item *models.Item, cause error) error {
	if err := s.Repo.DeleteItem(item.ID); err != nil {
		log.Printf("Rollback failed for item %s: %v (blobs under %s may be orphaned)",
			item.ID, err, storage.ItemPrefix(item.UserID, item.ID))
	} else {
		log.Printf("Rolled back item %s after failed upload: %v", item.ID, cause)
	}
	s.Metrics.UploadFailed()
	return cause
}

func itemLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.KindNotFound, "item not found")
	}
	return apperr.Wrap(err, apperr.KindUnknown, "failed to load item")
}
