// Package model defines core data structures and types for the blog application.
package model

import (
	"html/template"
	"time"
)

type PostID string

type MediaID string

type UserID string

// Status is the publication state of a post. There is no soft-delete state;
// a deleted post is simply gone.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type Post struct {
	ID PostID

	Title string

	// Slug is unique across all posts. Derived from the title unless the
	// author hand-edited it before submitting.
	Slug string

	// Content is editor-produced HTML, stored verbatim.
	Content template.HTML

	Status Status

	// FeaturedImageID references the post's media object. Empty until an
	// image is attached; at most one post references a given media object.
	FeaturedImageID MediaID

	// Owner of the post. Set on creation, never changed afterwards.
	AuthorID UserID

	CreatedDate  time.Time
	ModifiedDate time.Time
}

// MediaObject is an uploaded binary stored outside the post record.
type MediaObject struct {
	ID          MediaID
	ContentType string
	Size        int64
}

// Actor is the session identity attempting an operation.
type Actor struct {
	ID   UserID
	Name string
}
