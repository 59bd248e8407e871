package post

import "errors"

// Failure kinds surfaced by the lifecycle controller. Wrapped values keep the
// underlying cause; match with errors.Is.
var (
	// ErrValidation means bad input and zero side effects. Always safe to
	// retry immediately.
	ErrValidation = errors.New("post: validation failed")

	// ErrMediaUpload means the featured image never made it to the store.
	// The post record, and on update the old image, are untouched.
	ErrMediaUpload = errors.New("post: media upload failed")

	// ErrMediaCleanup is the non-fatal warning for a failed media delete
	// after the post record was already handled.
	ErrMediaCleanup = errors.New("post: media cleanup failed")

	// ErrPostCreate means the repository rejected the new record after a
	// successful upload; the uploaded image was compensated for.
	ErrPostCreate = errors.New("post: create failed")

	ErrNotFound  = errors.New("post: not found")
	ErrForbidden = errors.New("post: forbidden")

	// ErrConflict means the slug is already taken by another post.
	ErrConflict = errors.New("post: slug conflict")

	// ErrInFlight rejects a double submit while the same post or form
	// already has an operation running.
	ErrInFlight = errors.New("post: operation already in flight")
)
