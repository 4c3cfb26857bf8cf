package service

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pawprintclub/pawfeed/internal/cursor"
	"github.com/pawprintclub/pawfeed/internal/model"
	"github.com/pawprintclub/pawfeed/internal/repository"
	"github.com/pawprintclub/pawfeed/internal/storage"
)

const (
	ListLimitDefault = 20
	ListLimitMax     = 50
)

type PostService struct {
	postRepo repository.PostRepository
	storage  storage.Storage
}

func NewPostService(postRepo repository.PostRepository, storage storage.Storage) *PostService {
	return &PostService{
		postRepo: postRepo,
		storage:  storage,
	}
}

// FeedPage is one page of the feed. NextCursor is empty when there are no
// more pages.
type FeedPage struct {
	Posts      []*model.Post
	NextCursor string
}

// List returns one page of the feed. limit is clamped to [1, 50] with a
// default of 20; any sort other than "oldest" means newest-first; an
// unparseable cursor token is treated as no cursor.
func (s *PostService) List(ctx context.Context, limit int, sort, search, cursorToken string) (*FeedPage, error) {
	if limit <= 0 {
		limit = ListLimitDefault
	}
	if limit > ListLimitMax {
		limit = ListLimitMax
	}

	if sort != repository.SortOldest {
		sort = repository.SortNewest
	}

	q := repository.ListQuery{
		Limit:  limit,
		Sort:   sort,
		Search: strings.TrimSpace(search),
	}
	if c, ok := cursor.Decode(cursorToken); ok {
		q.After = &c
	}

	posts, err := s.postRepo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	page := &FeedPage{Posts: posts}
	// A short page means the snapshot is exhausted.
	if len(posts) == limit {
		last := posts[len(posts)-1]
		page.NextCursor = cursor.Encode(last.CreatedAt(), last.ID)
	}

	return page, nil
}

// Create stores the uploaded image, then inserts the post record. The blob
// is written first so no record ever references a missing image; a crash
// between the two leaks an orphaned blob, which is accepted.
func (s *PostService) Create(ctx context.Context, petName, petType, caption string, file multipart.File, header *multipart.FileHeader) (*model.Post, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	storagePath := "posts/" + uuid.New().String() + ext

	err := s.storage.Save(storagePath, file)
	if err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	post := &model.Post{
		ID:              uuid.New().String(),
		PetName:         truncate(strings.TrimSpace(petName), model.PetNameMaxLen),
		PetType:         normalizePetType(petType),
		Caption:         truncate(strings.TrimSpace(caption), model.CaptionMaxLen),
		ImagePath:       storagePath,
		CreatedAtMicros: time.Now().UTC().UnixMicro(),
	}

	err = s.postRepo.Insert(ctx, post)
	if err != nil {
		// If the insert fails, try to clean up the uploaded image
		delErr := s.storage.Delete(storagePath)
		if delErr != nil {
			slog.Error("failed to delete image during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return post, nil
}

// Delete removes the post record and kicks off best-effort blob cleanup.
// The record deletion is authoritative; a failed blob delete is logged and
// swallowed.
func (s *PostService) Delete(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.postRepo.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}

	go func(path string) {
		delErr := s.storage.Delete(path)
		if delErr != nil {
			slog.Warn("failed to delete image from storage", "error", delErr, "path", path)
		}
	}(post.ImagePath)

	return post, nil
}

// ImageURL resolves a post's storage key to its public URL.
func (s *PostService) ImageURL(post *model.Post) string {
	return s.storage.URL(post.ImagePath)
}

func normalizePetType(petType string) string {
	petType = truncate(strings.TrimSpace(petType), model.PetTypeMaxLen)
	if petType == "" {
		return model.DefaultPetType
	}
	return petType
}

// truncate caps s at max runes without splitting a multi-byte character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
