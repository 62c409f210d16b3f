package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"warehouse-service/internal/apperr"
	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"
)

func sceneFixture(t *testing.T) (*SceneService, *gorm.DB, *models.Room, *models.Item, *models.Item) {
	t.Helper()
	db := testDB(t)

	room := &models.Room{UserID: 1, Name: "Sample Room"}
	require.NoError(t, db.Create(room).Error)

	itemA := &models.Item{ID: uuid.New(), UserID: 1, Name: "chair"}
	itemB := &models.Item{ID: uuid.New(), UserID: 1, Name: "lamp"}
	require.NoError(t, db.Create(itemA).Error)
	require.NoError(t, db.Create(itemB).Error)

	svc := NewSceneService(repository.NewRoomRepository(db), repository.NewPlacementRepository(db))
	return svc, db, room, itemA, itemB
}

func placementCount(t *testing.T, db *gorm.DB, roomID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Placement{}).Where("room_id = ?", roomID).Count(&n).Error)
	return n
}

func TestApplySnapshotCreatesAndDeletesByOmission(t *testing.T) {
	svc, db, room, itemA, itemB := sceneFixture(t)

	results, rows, err := svc.ApplySnapshot(room.ID, []PlacementInput{
		{ItemID: itemA.ID, Position: models.Vector3{X: 1}, Rotation: models.Quaternion{W: 1}, Scale: models.Vector3{X: 1, Y: 1, Z: 1}, ParentIndex: intPtr(models.NoParent)},
		{ItemID: itemB.ID, Position: models.Vector3{Y: 2}, Rotation: models.Quaternion{W: 1}, Scale: models.Vector3{X: 1, Y: 1, Z: 1}, ParentIndex: intPtr(0)},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "created", results[0].Action)
	assert.Equal(t, "created", results[1].Action)
	assert.Len(t, rows, 2)

	// Resubmitting with only item A must drop item B's row.
	results, rows, err = svc.ApplySnapshot(room.ID, []PlacementInput{
		{ItemID: itemA.ID, Position: models.Vector3{X: 5}, Rotation: models.Quaternion{W: 1}, Scale: models.Vector3{X: 1, Y: 1, Z: 1}, ParentIndex: intPtr(models.NoParent)},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "updated", results[0].Action)
	require.Len(t, rows, 1)
	assert.Equal(t, itemA.ID, rows[0].ItemID)
	assert.Equal(t, 5.0, rows[0].Position.X)
	assert.EqualValues(t, 1, placementCount(t, db, room.ID))
}

func TestApplySnapshotEmptyClearsRoomIdempotently(t *testing.T) {
	svc, db, room, itemA, _ := sceneFixture(t)

	_, _, err := svc.ApplySnapshot(room.ID, []PlacementInput{
		{ItemID: itemA.ID, Rotation: models.Quaternion{W: 1}, Scale: models.Vector3{X: 1, Y: 1, Z: 1}, ParentIndex: intPtr(models.NoParent)},
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		results, rows, err := svc.ApplySnapshot(room.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Empty(t, rows)
		assert.EqualValues(t, 0, placementCount(t, db, room.ID))
	}
}

func TestApplySnapshotKeepsOneRowPerItem(t *testing.T) {
	svc, db, room, itemA, _ := sceneFixture(t)

	for i := 0; i < 3; i++ {
		_, _, err := svc.ApplySnapshot(room.ID, []PlacementInput{
			{ItemID: itemA.ID, Position: models.Vector3{X: float64(i)}, Rotation: models.Quaternion{W: 1}, Scale: models.Vector3{X: 1, Y: 1, Z: 1}, ParentIndex: intPtr(models.NoParent)},
		})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, placementCount(t, db, room.ID))
}

func TestApplySingleLeavesOtherPlacementsAlone(t *testing.T) {
	svc, db, room, itemA, itemB := sceneFixture(t)

	_, _, err := svc.ApplySnapshot(room.ID, []PlacementInput{
		{ItemID: itemA.ID, Rotation: models.Quaternion{W: 1}, Scale: models.Vector3{X: 1, Y: 1, Z: 1}, ParentIndex: intPtr(models.NoParent)},
	})
	require.NoError(t, err)

	result, row, err := svc.ApplySingle(room.ID, PlacementInput{
		ItemID: itemB.ID, Position: models.Vector3{Z: 3}, Rotation: models.Quaternion{W: 1}, Scale: models.Vector3{X: 1, Y: 1, Z: 1}, ParentIndex: intPtr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, "created", result.Action)
	require.NotNil(t, row)
	assert.Equal(t, 3.0, row.Position.Z)
	assert.EqualValues(t, 2, placementCount(t, db, room.ID))

	// Moving item B again updates in place.
	result, row, err = svc.ApplySingle(room.ID, PlacementInput{
		ItemID: itemB.ID, Position: models.Vector3{Z: 9}, Rotation: models.Quaternion{W: 1}, Scale: models.Vector3{X: 1, Y: 1, Z: 1}, ParentIndex: intPtr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, "updated", result.Action)
	assert.Equal(t, 9.0, row.Position.Z)
	assert.EqualValues(t, 2, placementCount(t, db, room.ID))
}

func TestZeroValuedTransformFieldsSurviveReload(t *testing.T) {
	svc, _, room, itemA, itemB := sceneFixture(t)

	// parent_index 0 points at the first scene node; a 180-degree turn
	// around Y has w == 0. Neither zero may be replaced on insert.
	_, _, err := svc.ApplySnapshot(room.ID, []PlacementInput{
		{ItemID: itemA.ID, Rotation: models.Quaternion{W: 1}, Scale: models.Vector3{X: 1, Y: 1, Z: 1}, ParentIndex: intPtr(models.NoParent)},
		{ItemID: itemB.ID, Rotation: models.Quaternion{Y: 1, W: 0}, Scale: models.Vector3{X: 1, Y: 1, Z: 1}, ParentIndex: intPtr(0)},
	})
	require.NoError(t, err)

	row, err := svc.Placements.GetByRoomAndItem(room.ID, itemB.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, row.ParentIndex)
	assert.Equal(t, 0.0, row.Rotation.W)
	assert.Equal(t, 1.0, row.Rotation.Y)

	// The same zeros survive the update path of the upsert.
	_, row, err = svc.ApplySingle(room.ID, PlacementInput{
		ItemID: itemB.ID, Position: models.Vector3{X: 2}, Rotation: models.Quaternion{Y: 1, W: 0},
		Scale: models.Vector3{X: 1, Y: 1, Z: 1}, ParentIndex: intPtr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, row.ParentIndex)
	assert.Equal(t, 0.0, row.Rotation.W)
}

func TestAbsentParentIndexMeansNoParent(t *testing.T) {
	svc, _, room, itemA, _ := sceneFixture(t)

	_, row, err := svc.ApplySingle(room.ID, PlacementInput{
		ItemID: itemA.ID, Rotation: models.Quaternion{W: 1}, Scale: models.Vector3{X: 1, Y: 1, Z: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, models.NoParent, row.ParentIndex)
}

func TestApplySnapshotUnknownRoom(t *testing.T) {
	svc, _, _, itemA, _ := sceneFixture(t)

	_, _, err := svc.ApplySnapshot(uuid.New(), []PlacementInput{{ItemID: itemA.ID}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, _, err = svc.ApplySingle(uuid.New(), PlacementInput{ItemID: itemA.ID})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
