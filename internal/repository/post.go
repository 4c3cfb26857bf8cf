package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/pawprintclub/pawfeed/internal/cursor"
	"github.com/pawprintclub/pawfeed/internal/model"
)

var (
	ErrPostNotFound = errors.New("post not found")
)

const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// ListQuery describes one page of the feed. Limit is assumed to be clamped
// by the caller. After, when non-nil, restricts results to rows strictly
// past the cursor's (created_at, id) key in the sort direction.
type ListQuery struct {
	Limit  int
	Sort   string // SortNewest or SortOldest
	Search string // case-insensitive substring over name/type/caption; empty matches all
	After  *cursor.Cursor
}

// PostRepository persists feed entries. The SQL and flat-file
// implementations must produce identical ordering and filtering for the
// same inputs; the shared contract test suite holds both to that.
type PostRepository interface {
	List(ctx context.Context, q ListQuery) ([]*model.Post, error)
	Insert(ctx context.Context, post *model.Post) error
	ByID(ctx context.Context, id string) (*model.Post, error)
	// DeleteByID removes the record and returns it so the caller can clean
	// up the associated blob. Returns ErrPostNotFound if absent, including
	// on a repeated delete.
	DeleteByID(ctx context.Context, id string) (*model.Post, error)
}

// searchText is the haystack a search term is matched against. Both
// backends fold it with Go's Unicode-aware ToLower: relying on the
// database's LOWER would diverge (SQLite folds ASCII only), so the SQL
// backend stores this pre-folded value alongside the row.
func searchText(p *model.Post) string {
	return strings.ToLower(p.PetName + " " + p.PetType + " " + p.Caption)
}
