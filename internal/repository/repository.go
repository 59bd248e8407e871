// Package repository persists post records.
package repository

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/embrace-blog/embrace/internal/model"
)

var (
	ErrNotFound    = errors.New("repository: post not found")
	ErrConflict    = errors.New("repository: slug already taken")
	ErrUnavailable = errors.New("repository: unavailable")
)

// PostUpdate carries the fields an update may change. Nil fields are left
// untouched. The author is deliberately absent: ownership never changes.
type PostUpdate struct {
	Title           *string
	Slug            *string
	Content         *string
	Status          *model.Status
	FeaturedImageID *model.MediaID
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) (*model.Post, error)
	GetBySlug(ctx context.Context, slug string) (*model.Post, error)
	GetByID(ctx context.Context, id model.PostID) (*model.Post, error)
	Update(ctx context.Context, id model.PostID, fields PostUpdate) (*model.Post, error)
	Delete(ctx context.Context, id model.PostID) error
	ListByStatus(ctx context.Context, status model.Status) ([]model.Post, error)

	// ReferencedMediaIDs returns every featured image id currently held by a
	// post. Used by the out-of-band orphan cleanup.
	ReferencedMediaIDs(ctx context.Context) ([]model.MediaID, error)
}

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}
