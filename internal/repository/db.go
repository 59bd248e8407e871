package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/embrace-blog/embrace/internal/cache"
	"github.com/embrace-blog/embrace/internal/db"
	"github.com/embrace-blog/embrace/internal/model"
	"github.com/embrace-blog/embrace/internal/util/compression"
)

type DBPostRepository struct { // implements PostRepository
	// slugCache maps slug -> post for the read path. Writes keep it in sync.
	slugCache *cache.Cache[string, *model.Post]

	db         db.DB
	compressor compression.Compressor
}

func NewDBPostRepository(db db.DB) *DBPostRepository {
	return &DBPostRepository{
		slugCache: cache.NewCache[string, *model.Post](),

		db: db,

		compressor: compression.ZstdCompressor{},
	}
}

func (r *DBPostRepository) Create(ctx context.Context, post *model.Post) (*model.Post, error) {
	created := *post
	created.ID = model.PostID(uuid.New().String())
	created.CreatedDate = time.Now().UTC()
	created.ModifiedDate = created.CreatedDate

	compressed, err := r.compressor.Compress([]byte(created.Content))
	if err != nil {
		return nil, fmt.Errorf("error compressing content: %w", err)
	}

	_, err = r.db.Get().ExecContext(ctx,
		`INSERT INTO posts (id, slug, title, content, status, featured_image_id, author_id, created_at, modified_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.Slug, created.Title, compressed, created.Status,
		nullableMediaID(created.FeaturedImageID), created.AuthorID,
		created.CreatedDate, created.ModifiedDate)
	if err != nil {
		return nil, wrapDBError("error inserting post", err)
	}

	repoLogger.Info().
		Str("post_id", string(created.ID)).
		Str("slug", created.Slug).
		Msg("Post created")

	r.slugCache.Set(created.Slug, &created)
	return &created, nil
}

func (r *DBPostRepository) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	if post, ok := r.slugCache.Get(slug); ok {
		return post, nil
	}

	row := r.db.Get().QueryRowContext(ctx,
		`SELECT id, slug, title, content, status, featured_image_id, author_id, created_at, modified_at
		 FROM posts WHERE slug = ?`, slug)

	post, err := r.scanPost(row)
	if err != nil {
		return nil, err
	}

	r.slugCache.Set(post.Slug, post)
	return post, nil
}

func (r *DBPostRepository) GetByID(ctx context.Context, id model.PostID) (*model.Post, error) {
	row := r.db.Get().QueryRowContext(ctx,
		`SELECT id, slug, title, content, status, featured_image_id, author_id, created_at, modified_at
		 FROM posts WHERE id = ?`, id)

	return r.scanPost(row)
}

func (r *DBPostRepository) Update(ctx context.Context, id model.PostID, fields PostUpdate) (*model.Post, error) {
	post, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldSlug := post.Slug

	if fields.Title != nil {
		post.Title = *fields.Title
	}
	if fields.Slug != nil {
		post.Slug = *fields.Slug
	}
	if fields.Content != nil {
		post.Content = template.HTML(*fields.Content)
	}
	if fields.Status != nil {
		post.Status = *fields.Status
	}
	if fields.FeaturedImageID != nil {
		post.FeaturedImageID = *fields.FeaturedImageID
	}
	post.ModifiedDate = time.Now().UTC()

	compressed, err := r.compressor.Compress([]byte(post.Content))
	if err != nil {
		return nil, fmt.Errorf("error compressing content: %w", err)
	}

	res, err := r.db.Get().ExecContext(ctx,
		`UPDATE posts SET slug = ?, title = ?, content = ?, status = ?, featured_image_id = ?, modified_at = ?
		 WHERE id = ?`,
		post.Slug, post.Title, compressed, post.Status,
		nullableMediaID(post.FeaturedImageID), post.ModifiedDate, id)
	if err != nil {
		return nil, wrapDBError("error updating post", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	r.slugCache.Delete(oldSlug)
	r.slugCache.Set(post.Slug, post)
	return post, nil
}

func (r *DBPostRepository) Delete(ctx context.Context, id model.PostID) error {
	post, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	res, err := r.db.Get().ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return wrapDBError("error deleting post", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	repoLogger.Info().Str("post_id", string(id)).Str("slug", post.Slug).Msg("Post deleted")

	r.slugCache.Delete(post.Slug)
	return nil
}

func (r *DBPostRepository) ListByStatus(ctx context.Context, status model.Status) ([]model.Post, error) {
	rows, err := r.db.Get().QueryContext(ctx,
		`SELECT id, slug, title, content, status, featured_image_id, author_id, created_at, modified_at
		 FROM posts WHERE status = ?`, status)
	if err != nil {
		return nil, wrapDBError("error querying posts", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		post, err := r.scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("error iterating posts", err)
	}

	// Sort the posts by modification date, newest first
	slices.SortStableFunc(posts, func(a, b model.Post) int {
		return -a.ModifiedDate.Compare(b.ModifiedDate)
	})

	return posts, nil
}

func (r *DBPostRepository) ReferencedMediaIDs(ctx context.Context) ([]model.MediaID, error) {
	rows, err := r.db.Get().QueryContext(ctx,
		`SELECT featured_image_id FROM posts WHERE featured_image_id IS NOT NULL`)
	if err != nil {
		return nil, wrapDBError("error querying media ids", err)
	}
	defer rows.Close()

	var ids []model.MediaID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning media id: %w", err)
		}
		ids = append(ids, model.MediaID(id))
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *DBPostRepository) scanPost(row rowScanner) (*model.Post, error) {
	var post model.Post
	var compressed []byte
	var imageID sql.NullString

	err := row.Scan(&post.ID, &post.Slug, &post.Title, &compressed, &post.Status,
		&imageID, &post.AuthorID, &post.CreatedDate, &post.ModifiedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning post: %w", err)
	}

	if imageID.Valid {
		post.FeaturedImageID = model.MediaID(imageID.String)
	}

	content, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing content: %w", err)
	}
	post.Content = template.HTML(content)

	return &post, nil
}

func nullableMediaID(id model.MediaID) any {
	if id == "" {
		return nil
	}
	return string(id)
}

func wrapDBError(msg string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%s: %w", msg, ErrConflict)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", msg, ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
