package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/pawprintclub/pawfeed/internal/model"
)

// filePostRepository persists posts in a single JSON document, rewritten
// wholesale on every mutation. A single writer goroutine owns the file:
// concurrent callers enqueue write requests and await completion, so
// partial writes never interleave. Reads serve from an in-memory snapshot
// and may trail a pending write (no cross-request read-after-write
// guarantee).
//
// Every List call filters and sorts the full record set in memory. That is
// a known limitation; this backend targets small self-hosted corpora.
type filePostRepository struct {
	path string

	mu    sync.RWMutex
	posts []*model.Post // snapshot, updated by the writer goroutine only

	writes chan fileWrite
	done   chan struct{}
}

type fileWrite struct {
	// apply transforms the current record set; returning an error leaves
	// the file and snapshot untouched.
	apply func([]*model.Post) ([]*model.Post, error)
	reply chan error
}

// fileDoc is the on-disk layout: one JSON document holding all posts.
type fileDoc struct {
	Posts []filePost `json:"posts"`
}

type filePost struct {
	ID        string `json:"id"`
	PetName   string `json:"petName"`
	PetType   string `json:"petType"`
	Caption   string `json:"caption"`
	ImagePath string `json:"imagePath"`
	CreatedAt int64  `json:"createdAt"` // unix microseconds
}

func NewFilePostRepository(path string) (*filePostRepository, error) {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	posts, err := loadPostsFile(path)
	if err != nil {
		return nil, err
	}

	r := &filePostRepository{
		path:   path,
		posts:  posts,
		writes: make(chan fileWrite),
		done:   make(chan struct{}),
	}
	go r.writeLoop()

	return r, nil
}

// Close stops the writer goroutine after draining queued writes.
func (r *filePostRepository) Close() error {
	close(r.writes)
	<-r.done
	return nil
}

func (r *filePostRepository) writeLoop() {
	defer close(r.done)

	for w := range r.writes {
		r.mu.RLock()
		current := r.posts
		r.mu.RUnlock()

		next, err := w.apply(current)
		if err == nil {
			err = writePostsFile(r.path, next)
		}
		if err == nil {
			r.mu.Lock()
			r.posts = next
			r.mu.Unlock()
		}
		w.reply <- err
	}
}

// enqueue hands a mutation to the writer goroutine and blocks until it has
// been durably applied (or rejected).
func (r *filePostRepository) enqueue(ctx context.Context, apply func([]*model.Post) ([]*model.Post, error)) error {
	w := fileWrite{apply: apply, reply: make(chan error, 1)}

	select {
	case r.writes <- w:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-w.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *filePostRepository) List(ctx context.Context, q ListQuery) ([]*model.Post, error) {
	r.mu.RLock()
	snapshot := r.posts
	r.mu.RUnlock()

	search := strings.ToLower(q.Search)

	matched := make([]*model.Post, 0, len(snapshot))
	for _, p := range snapshot {
		if search != "" && !strings.Contains(searchText(p), search) {
			continue
		}
		if q.After != nil {
			if q.Sort == SortOldest {
				// keep rows strictly after the cursor key
				if p.CreatedAtMicros < q.After.CreatedAtMicros ||
					(p.CreatedAtMicros == q.After.CreatedAtMicros && p.ID <= q.After.ID) {
					continue
				}
			} else {
				if p.CreatedAtMicros > q.After.CreatedAtMicros ||
					(p.CreatedAtMicros == q.After.CreatedAtMicros && p.ID >= q.After.ID) {
					continue
				}
			}
		}
		matched = append(matched, p)
	}

	if q.Sort == SortOldest {
		sort.Slice(matched, func(i, j int) bool { return matched[i].Before(matched[j]) })
	} else {
		sort.Slice(matched, func(i, j int) bool { return matched[j].Before(matched[i]) })
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	return matched, nil
}

func (r *filePostRepository) Insert(ctx context.Context, post *model.Post) error {
	p := *post
	return r.enqueue(ctx, func(posts []*model.Post) ([]*model.Post, error) {
		for _, existing := range posts {
			if existing.ID == p.ID {
				return nil, fmt.Errorf("post %s already exists", p.ID)
			}
		}
		next := make([]*model.Post, len(posts), len(posts)+1)
		copy(next, posts)
		return append(next, &p), nil
	})
}

func (r *filePostRepository) ByID(ctx context.Context, id string) (*model.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.posts {
		if p.ID == id {
			found := *p
			return &found, nil
		}
	}
	return nil, ErrPostNotFound
}

func (r *filePostRepository) DeleteByID(ctx context.Context, id string) (*model.Post, error) {
	var removed *model.Post

	err := r.enqueue(ctx, func(posts []*model.Post) ([]*model.Post, error) {
		next := make([]*model.Post, 0, len(posts))
		for _, p := range posts {
			if p.ID == id {
				found := *p
				removed = &found
				continue
			}
			next = append(next, p)
		}
		if removed == nil {
			return nil, ErrPostNotFound
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

func loadPostsFile(path string) ([]*model.Post, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read posts file: %w", err)
	}

	var doc fileDoc
	err = json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse posts file: %w", err)
	}

	posts := make([]*model.Post, 0, len(doc.Posts))
	for _, p := range doc.Posts {
		posts = append(posts, &model.Post{
			ID:              p.ID,
			PetName:         p.PetName,
			PetType:         p.PetType,
			Caption:         p.Caption,
			ImagePath:       p.ImagePath,
			CreatedAtMicros: p.CreatedAt,
		})
	}

	return posts, nil
}

func writePostsFile(path string, posts []*model.Post) error {
	doc := fileDoc{Posts: make([]filePost, 0, len(posts))}
	for _, p := range posts {
		doc.Posts = append(doc.Posts, filePost{
			ID:        p.ID,
			PetName:   p.PetName,
			PetType:   p.PetType,
			Caption:   p.Caption,
			ImagePath: p.ImagePath,
			CreatedAt: p.CreatedAtMicros,
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode posts file: %w", err)
	}

	// Atomic rename so a crash mid-write never leaves a torn document.
	err = atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to write posts file: %w", err)
	}

	return nil
}
