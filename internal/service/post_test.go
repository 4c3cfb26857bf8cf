package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawprintclub/pawfeed/internal/model"
	"github.com/pawprintclub/pawfeed/internal/repository"
)

// fakeStorage is an in-memory blob sink.
type fakeStorage struct {
	mu         sync.Mutex
	blobs      map[string][]byte
	failDelete bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: map[string][]byte{}}
}

func (s *fakeStorage) Save(path string, file io.Reader) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = data
	return nil
}

func (s *fakeStorage) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete {
		return errors.New("storage unavailable")
	}
	delete(s.blobs, path)
	return nil
}

func (s *fakeStorage) URL(path string) string {
	return "https://cdn.test/" + path
}

func (s *fakeStorage) has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[path]
	return ok
}

func (s *fakeStorage) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for p := range s.blobs {
		out = append(out, p)
	}
	return out
}

func newTestService(t *testing.T) (*PostService, *fakeStorage, repository.PostRepository) {
	t.Helper()

	repo, err := repository.NewFilePostRepository(filepath.Join(t.TempDir(), "posts.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	store := newFakeStorage()
	return NewPostService(repo, store), store, repo
}

// pngBytes is a minimal payload that sniffs as image/png.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

// uploadFile builds a real multipart file + header the way net/http would
// hand them to the handler.
func uploadFile(t *testing.T, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	header := form.File["photo"][0]
	file, err := header.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })

	return file, header
}

func mustCreate(t *testing.T, svc *PostService, name, petType, caption string) *model.Post {
	t.Helper()
	file, header := uploadFile(t, "pet.png", pngBytes)
	post, err := svc.Create(context.Background(), name, petType, caption, file, header)
	require.NoError(t, err)
	return post
}

func TestCreateNormalizesFields(t *testing.T) {
	svc, store, _ := newTestService(t)

	longName := strings.Repeat("n", 50)
	longCaption := strings.Repeat("c", 300)

	post := mustCreate(t, svc, "  "+longName+"  ", "   ", longCaption)

	assert.Equal(t, strings.Repeat("n", 40), post.PetName, "name capped at 40")
	assert.Equal(t, "Other", post.PetType, "blank type defaults")
	assert.Equal(t, strings.Repeat("c", 240), post.Caption, "caption capped at 240")
	assert.NotEmpty(t, post.ID)
	assert.True(t, strings.HasPrefix(post.ImagePath, "posts/"))
	assert.True(t, strings.HasSuffix(post.ImagePath, ".png"))
	assert.InDelta(t, time.Now().UnixMicro(), post.CreatedAtMicros, float64(5*time.Second/time.Microsecond))

	assert.True(t, store.has(post.ImagePath), "blob written before metadata")
}

func TestCreateKeepsPetTypeWithinCap(t *testing.T) {
	svc, _, _ := newTestService(t)

	post := mustCreate(t, svc, "Rex", strings.Repeat("t", 30), "hi")
	assert.Equal(t, strings.Repeat("t", 24), post.PetType)
}

func TestCreateCleansUpBlobWhenInsertFails(t *testing.T) {
	store := newFakeStorage()
	svc := NewPostService(failingRepo{}, store)

	file, header := uploadFile(t, "pet.png", pngBytes)
	_, err := svc.Create(context.Background(), "Rex", "Dog", "hi", file, header)
	require.Error(t, err)

	assert.Empty(t, store.paths(), "orphaned blob cleaned up on insert failure")
}

func TestListClampsLimit(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 55; i++ {
		require.NoError(t, repo.Insert(ctx, &model.Post{
			ID:              fmt.Sprintf("p%02d", i),
			PetType:         "Dog",
			ImagePath:       "posts/x.png",
			CreatedAtMicros: int64(i),
		}))
	}

	page, err := svc.List(ctx, 100, "", "", "")
	require.NoError(t, err)
	assert.Len(t, page.Posts, 50, "limit clamped to 50")
	assert.NotEmpty(t, page.NextCursor)

	page, err = svc.List(ctx, 0, "", "", "")
	require.NoError(t, err)
	assert.Len(t, page.Posts, 20, "default limit")

	page, err = svc.List(ctx, -3, "", "", "")
	require.NoError(t, err)
	assert.Len(t, page.Posts, 20)

	page, err = svc.List(ctx, 1, "", "", "")
	require.NoError(t, err)
	assert.Len(t, page.Posts, 1)
}

func TestListCursorChaining(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Insert(ctx, &model.Post{
			ID:              fmt.Sprintf("p%d", i),
			PetType:         "Dog",
			ImagePath:       "posts/x.png",
			CreatedAtMicros: int64(100 + i),
		}))
	}

	first, err := svc.List(ctx, 2, "newest", "", "")
	require.NoError(t, err)
	require.Len(t, first.Posts, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.Equal(t, "p2", first.Posts[0].ID)
	assert.Equal(t, "p1", first.Posts[1].ID)

	second, err := svc.List(ctx, 2, "newest", "", first.NextCursor)
	require.NoError(t, err)
	require.Len(t, second.Posts, 1)
	assert.Equal(t, "p0", second.Posts[0].ID)
	assert.Empty(t, second.NextCursor, "short page means no more results")
}

func TestListCursorOnExactBoundary(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Insert(ctx, &model.Post{
			ID:              fmt.Sprintf("p%d", i),
			PetType:         "Dog",
			ImagePath:       "posts/x.png",
			CreatedAtMicros: int64(i),
		}))
	}

	// 4 posts, limit 2: second page is full so it still carries a cursor;
	// the third call returns an empty page and no cursor.
	page1, err := svc.List(ctx, 2, "oldest", "", "")
	require.NoError(t, err)
	require.NotEmpty(t, page1.NextCursor)

	page2, err := svc.List(ctx, 2, "oldest", "", page1.NextCursor)
	require.NoError(t, err)
	require.Len(t, page2.Posts, 2)
	require.NotEmpty(t, page2.NextCursor)

	page3, err := svc.List(ctx, 2, "oldest", "", page2.NextCursor)
	require.NoError(t, err)
	assert.Empty(t, page3.Posts)
	assert.Empty(t, page3.NextCursor)
}

func TestListInvalidCursorMeansStartOfList(t *testing.T) {
	svc, _, repo := newTestService(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &model.Post{
		ID: "p0", PetType: "Dog", ImagePath: "posts/x.png", CreatedAtMicros: 1,
	}))

	page, err := svc.List(ctx, 10, "newest", "", "!!!not-a-cursor!!!")
	require.NoError(t, err)
	assert.Len(t, page.Posts, 1, "bad cursor treated as no cursor, not an error")
}

func TestDeleteRemovesRecordAndBlob(t *testing.T) {
	svc, store, repo := newTestService(t)
	ctx := context.Background()

	post := mustCreate(t, svc, "Rex", "Dog", "bye")

	removed, err := svc.Delete(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, removed.ID)

	_, err = repo.ByID(ctx, post.ID)
	assert.ErrorIs(t, err, repository.ErrPostNotFound)

	// blob cleanup is fire-and-forget
	require.Eventually(t, func() bool { return !store.has(post.ImagePath) },
		2*time.Second, 10*time.Millisecond)
}

func TestDeleteNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrPostNotFound)
}

func TestDeleteSwallowsBlobFailure(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.failDelete = true

	post := mustCreate(t, svc, "Rex", "Dog", "bye")

	_, err := svc.Delete(context.Background(), post.ID)
	assert.NoError(t, err, "metadata delete is authoritative")
}

// failingRepo rejects every insert.
type failingRepo struct{}

func (failingRepo) List(ctx context.Context, q repository.ListQuery) ([]*model.Post, error) {
	return nil, nil
}

func (failingRepo) Insert(ctx context.Context, post *model.Post) error {
	return errors.New("insert failed")
}

func (failingRepo) ByID(ctx context.Context, id string) (*model.Post, error) {
	return nil, repository.ErrPostNotFound
}

func (failingRepo) DeleteByID(ctx context.Context, id string) (*model.Post, error) {
	return nil, repository.ErrPostNotFound
}
