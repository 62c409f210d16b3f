package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-service/internal/apperr"
	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"
	"warehouse-service/internal/storage"
)

func profileFixture(t *testing.T) (*ProfileService, *fakeStore) {
	t.Helper()
	db := testDB(t)
	store := newFakeStore()
	return NewProfileService(repository.NewProfileRepository(db), store), store
}

func strPtr(s string) *string { return &s }

func TestProfileUpdateCreatesOnFirstWrite(t *testing.T) {
	svc, _ := profileFixture(t)
	ctx := context.Background()

	_, err := svc.Show(9)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	p, err := svc.Update(ctx, 9, ProfileUpdate{DisplayName: strPtr("alex")})
	require.NoError(t, err)
	assert.Equal(t, "alex", p.DisplayName)
	assert.Equal(t, models.DefaultThumbnail, p.Thumbnail)

	shown, err := svc.Show(9)
	require.NoError(t, err)
	assert.Equal(t, "alex", shown.DisplayName)
}

func TestProfileUpdateReplacesThumbnail(t *testing.T) {
	svc, store := profileFixture(t)
	ctx := context.Background()

	// First upload: the "default" sentinel has no blob to delete.
	p, err := svc.Update(ctx, 9, ProfileUpdate{Thumbnail: makeFileHeader(t, "first.png", []byte("one"))})
	require.NoError(t, err)
	assert.Equal(t, "first.png", p.Thumbnail)

	p, err = svc.Update(ctx, 9, ProfileUpdate{Thumbnail: makeFileHeader(t, "second.png", []byte("two"))})
	require.NoError(t, err)
	assert.Equal(t, "second.png", p.Thumbnail)

	assert.Equal(t, 1, store.count("profile/9/"))
	data, err := store.Get(ctx, storage.ProfileThumbnailPath(9, "second.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)
}

func TestProfileUpdateLeavesUnsetFieldsAlone(t *testing.T) {
	svc, _ := profileFixture(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, 9, ProfileUpdate{DisplayName: strPtr("alex"), Bio: strPtr("builder")})
	require.NoError(t, err)

	p, err := svc.Update(ctx, 9, ProfileUpdate{Bio: strPtr("maker")})
	require.NoError(t, err)
	assert.Equal(t, "alex", p.DisplayName)
	assert.Equal(t, "maker", p.Bio)
}

func TestProfileSearchMatchesSubstring(t *testing.T) {
	svc, _ := profileFixture(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, 1, ProfileUpdate{DisplayName: strPtr("alexandra")})
	require.NoError(t, err)
	_, err = svc.Update(ctx, 2, ProfileUpdate{DisplayName: strPtr("alex")})
	require.NoError(t, err)
	_, err = svc.Update(ctx, 3, ProfileUpdate{DisplayName: strPtr("sam")})
	require.NoError(t, err)

	results, err := svc.Search("alex")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = svc.Search("nobody")
	require.NoError(t, err)
	assert.Empty(t, results)
}
