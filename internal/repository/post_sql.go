package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pawprintclub/pawfeed/internal/model"
)

type sqlPostRepository struct {
	db *sqlx.DB

	// idExpr is the id column as used in tie-break comparisons and ORDER BY.
	// Ties must resolve in byte order on every driver so pagination matches
	// the flat-file backend's string comparison. SQLite's default BINARY
	// collation already is byte order; Postgres needs it spelled out.
	idExpr string
}

func NewSQLPostRepository(db *sqlx.DB) *sqlPostRepository {
	idExpr := "id"
	if db.DriverName() == "pgx" {
		idExpr = `id COLLATE "C"`
	}
	return &sqlPostRepository{db: db, idExpr: idExpr}
}

func (r *sqlPostRepository) buildListQuery(q ListQuery) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	if q.Search != "" {
		conds = append(conds, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(q.Search))+"%")
	}

	if q.After != nil {
		// Keyset predicate: strictly past the cursor key in sort direction.
		if q.Sort == SortOldest {
			conds = append(conds, fmt.Sprintf(`(created_at > ? OR (created_at = ? AND %s > ?))`, r.idExpr))
		} else {
			conds = append(conds, fmt.Sprintf(`(created_at < ? OR (created_at = ? AND %s < ?))`, r.idExpr))
		}
		args = append(args, q.After.CreatedAtMicros, q.After.CreatedAtMicros, q.After.ID)
	}

	query := `SELECT id, pet_name, pet_type, caption, image_path, created_at FROM posts`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if q.Sort == SortOldest {
		query += fmt.Sprintf(" ORDER BY created_at ASC, %s ASC", r.idExpr)
	} else {
		query += fmt.Sprintf(" ORDER BY created_at DESC, %s DESC", r.idExpr)
	}
	query += " LIMIT ?"
	args = append(args, q.Limit)

	return query, args
}

func (r *sqlPostRepository) List(ctx context.Context, q ListQuery) ([]*model.Post, error) {
	query, args := r.buildListQuery(q)

	var posts []*model.Post
	err := r.db.SelectContext(ctx, &posts, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

func (r *sqlPostRepository) Insert(ctx context.Context, post *model.Post) error {
	query := `INSERT INTO posts (id, pet_name, pet_type, caption, image_path, created_at, search_text)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		post.ID,
		post.PetName,
		post.PetType,
		post.Caption,
		post.ImagePath,
		post.CreatedAtMicros,
		searchText(post),
	)

	return err
}

func (r *sqlPostRepository) ByID(ctx context.Context, id string) (*model.Post, error) {
	post := &model.Post{}
	query := `SELECT id, pet_name, pet_type, caption, image_path, created_at FROM posts WHERE id = ?`

	err := r.db.GetContext(ctx, post, r.db.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}

	return post, err
}

func (r *sqlPostRepository) DeleteByID(ctx context.Context, id string) (*model.Post, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	post := &model.Post{}
	query := `SELECT id, pet_name, pet_type, caption, image_path, created_at FROM posts WHERE id = ?`
	err = tx.GetContext(ctx, post, tx.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM posts WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete post: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}

	return post, nil
}

// escapeLike escapes LIKE wildcards so search terms match as plain
// substrings, identical to the flat-file backend's strings.Contains.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
