package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"warehouse-service/internal/apperr"
	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"
	"warehouse-service/internal/storage"
)

func itemFixture(t *testing.T) (*ItemService, *gorm.DB, *fakeStore) {
	t.Helper()
	db := testDB(t)
	store := newFakeStore()
	svc := NewItemService(db, repository.NewItemRepository(db),
		repository.NewPlacementRepository(db), store, nil, nil)
	return svc, db, store
}

func itemCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Item{}).Count(&n).Error)
	return n
}

func TestCreateItemStoresRowAndBlobs(t *testing.T) {
	svc, db, store := itemFixture(t)
	ctx := context.Background()

	file := makeFileHeader(t, "chair.glb", glbPayload())
	thumb := makeFileHeader(t, "chair.png", []byte("png bytes"))

	item, err := svc.CreateItem(ctx, 7, "chair", "a memo", file, thumb)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.Equal(t, uint(7), item.UserID)
	assert.NotEmpty(t, item.FileURL)
	assert.NotEmpty(t, item.ThumbnailURL)

	assert.EqualValues(t, 1, itemCount(t, db))
	prefix := storage.ItemPrefix(7, item.ID)
	assert.Equal(t, 2, store.count(prefix))

	data, err := store.Get(ctx, storage.ItemObjectPath(7, item.ID, "chair.glb"))
	require.NoError(t, err)
	assert.Equal(t, glbPayload(), data)
}

func TestCreateItemRejectsNonGLB(t *testing.T) {
	svc, db, store := itemFixture(t)

	file := makeFileHeader(t, "chair.fbx", glbPayload())
	thumb := makeFileHeader(t, "chair.png", []byte("png bytes"))

	_, err := svc.CreateItem(context.Background(), 7, "chair", "", file, thumb)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidFormat, apperr.KindOf(err))
	assert.EqualValues(t, 0, itemCount(t, db))
	assert.Equal(t, 0, store.count(""))
}

func TestCreateItemRollsBackRowOnUploadFailure(t *testing.T) {
	svc, db, store := itemFixture(t)
	store.failPut = true

	file := makeFileHeader(t, "chair.glb", glbPayload())
	thumb := makeFileHeader(t, "chair.png", []byte("png bytes"))

	_, err := svc.CreateItem(context.Background(), 7, "chair", "", file, thumb)
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.EqualValues(t, 0, itemCount(t, db), "failed upload must not leave a partial row")
}

func TestUpdateItemReplacesThumbnailBlob(t *testing.T) {
	svc, db, store := itemFixture(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, 7, "chair", "",
		makeFileHeader(t, "chair.glb", glbPayload()),
		makeFileHeader(t, "old.png", []byte("old")))
	require.NoError(t, err)

	name := "renamed"
	updated, err := svc.UpdateItem(ctx, item.ID, &name, nil, makeFileHeader(t, "new.png", []byte("new")))
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "new.png", updated.Thumbnail)

	prefix := storage.ItemPrefix(7, item.ID)
	assert.Equal(t, 2, store.count(prefix), "old thumbnail must be gone, glb and new thumbnail remain")
	_, err = store.Get(ctx, storage.ItemObjectPath(7, item.ID, "old.png"))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	var row models.Item
	require.NoError(t, db.First(&row, "id = ?", item.ID).Error)
	assert.Equal(t, "renamed", row.Name)
}

func TestUpdateItemUnknownID(t *testing.T) {
	svc, _, _ := itemFixture(t)
	_, err := svc.UpdateItem(context.Background(), uuid.New(), nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteItemRemovesRowPlacementsAndBlobs(t *testing.T) {
	svc, db, store := itemFixture(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, 7, "chair", "",
		makeFileHeader(t, "chair.glb", glbPayload()),
		makeFileHeader(t, "chair.png", []byte("png")))
	require.NoError(t, err)

	room := &models.Room{UserID: 7, Name: "Sample Room"}
	require.NoError(t, db.Create(room).Error)
	require.NoError(t, db.Create(&models.Placement{
		RoomID: room.ID, ItemID: item.ID,
		Rotation: models.Quaternion{W: 1}, Scale: models.Vector3{X: 1, Y: 1, Z: 1},
		ParentIndex: models.NoParent,
	}).Error)

	require.NoError(t, svc.DeleteItem(ctx, item.ID))

	assert.EqualValues(t, 0, itemCount(t, db))
	var placements int64
	require.NoError(t, db.Model(&models.Placement{}).Where("item_id = ?", item.ID).Count(&placements).Error)
	assert.EqualValues(t, 0, placements)
	assert.Equal(t, 0, store.count(storage.ItemPrefix(7, item.ID)))
}

func TestDeleteItemBlobFailureRollsBackRelationalDeletes(t *testing.T) {
	svc, db, store := itemFixture(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, 7, "chair", "",
		makeFileHeader(t, "chair.glb", glbPayload()),
		makeFileHeader(t, "chair.png", []byte("png")))
	require.NoError(t, err)

	store.failDeleteAll = true
	err = svc.DeleteItem(ctx, item.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.EqualValues(t, 1, itemCount(t, db), "blob failure must keep the row")
}

func TestAdoptStagedPromotesArtifact(t *testing.T) {
	svc, db, store := itemFixture(t)
	ctx := context.Background()

	stagedName := "task-1_model.glb"
	_, err := storage.PutBytes(ctx, store, storage.StagedModelPath(stagedName), glbPayload(), glbContentType)
	require.NoError(t, err)

	item, err := svc.AdoptStaged(ctx, stagedName, 7, "generated chair", "",
		makeFileHeader(t, "chair.png", []byte("png")))
	require.NoError(t, err)
	assert.EqualValues(t, 1, itemCount(t, db))

	// Staging object is consumed, the adopted copy lives under the item prefix.
	exists, err := store.Exists(ctx, storage.StagedModelPath(stagedName))
	require.NoError(t, err)
	assert.False(t, exists)
	data, err := store.Get(ctx, storage.ItemObjectPath(7, item.ID, stagedName))
	require.NoError(t, err)
	assert.Equal(t, glbPayload(), data)
}

func TestAdoptStagedFailureKeepsStagingObject(t *testing.T) {
	svc, db, store := itemFixture(t)
	ctx := context.Background()

	// Corrupt staged bytes make adoption fail validation.
	stagedName := "task-2_model.glb"
	_, err := storage.PutBytes(ctx, store, storage.StagedModelPath(stagedName), []byte("not a glb"), glbContentType)
	require.NoError(t, err)

	_, err = svc.AdoptStaged(ctx, stagedName, 7, "broken", "",
		makeFileHeader(t, "chair.png", []byte("png")))
	require.Error(t, err)
	assert.EqualValues(t, 0, itemCount(t, db))

	exists, err := store.Exists(ctx, storage.StagedModelPath(stagedName))
	require.NoError(t, err)
	assert.True(t, exists, "failed adoption must stay retryable")
}

func TestAdoptStagedMissingArtifact(t *testing.T) {
	svc, _, _ := itemFixture(t)
	_, err := svc.AdoptStaged(context.Background(), "missing.glb", 7, "x", "",
		makeFileHeader(t, "chair.png", []byte("png")))
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPreviewModelUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := storage.NewPreviewCacheFromClient(client, time.Minute)

	db := testDB(t)
	store := newFakeStore()
	svc := NewItemService(db, repository.NewItemRepository(db),
		repository.NewPlacementRepository(db), store, cache, nil)
	ctx := context.Background()

	stagedName := "task-3_model.glb"
	_, err := storage.PutBytes(ctx, store, storage.StagedModelPath(stagedName), glbPayload(), glbContentType)
	require.NoError(t, err)

	data, err := svc.PreviewModel(ctx, stagedName)
	require.NoError(t, err)
	assert.Equal(t, glbPayload(), data)

	// A second read is served from the cache even after the blob is gone.
	require.NoError(t, store.Delete(ctx, storage.StagedModelPath(stagedName)))
	data, err = svc.PreviewModel(ctx, stagedName)
	require.NoError(t, err)
	assert.Equal(t, glbPayload(), data)
}

func TestPreviewModelMissingArtifact(t *testing.T) {
	svc, _, _ := itemFixture(t)
	_, err := svc.PreviewModel(context.Background(), "missing.glb")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
