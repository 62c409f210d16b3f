package services

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"warehouse-service/internal/apperr"
	"warehouse-service/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Item{},
		&models.Room{},
		&models.Placement{},
		&models.Profile{},
		&models.RoomComment{},
		&models.RoomLike{},
	))
	return db
}

func makeFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	return form.File["file"][0]
}

func intPtr(i int) *int { return &i }

func glbPayload() []byte {
	return append([]byte{0x67, 0x6C, 0x54, 0x46}, []byte("binary glTF body")...)
}

// fakeStore is an in-memory ObjectStore with switchable failure modes.
type fakeStore struct {
	mu            sync.Mutex
	objects       map[string][]byte
	failPut       bool
	failDelete    bool
	failDeleteAll bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(ctx context.Context, path string, reader io.Reader, size int64, contentType string) (string, error) {
	if f.failPut {
		return "", apperr.New(apperr.KindStorage, "failed to store file")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = data
	return f.URL(path), nil
}

func (f *fakeStore) Get(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "file not found")
	}
	return data, nil
}

func (f *fakeStore) Exists(ctx context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[path]
	return ok, nil
}

func (f *fakeStore) Delete(ctx context.Context, paths ...string) error {
	if f.failDelete {
		return apperr.New(apperr.KindStorage, "failed to delete file")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range paths {
		delete(f.objects, p)
	}
	return nil
}

func (f *fakeStore) DeleteAll(ctx context.Context, prefix string) (int, error) {
	if f.failDeleteAll {
		return 0, apperr.New(apperr.KindStorage, "failed to delete file")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for p := range f.objects {
		if strings.HasPrefix(p, prefix) {
			delete(f.objects, p)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var paths []string
	for p := range f.objects {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

func (f *fakeStore) URL(path string) string {
	return "memory://bucket/" + path
}

func (f *fakeStore) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for p := range f.objects {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}
