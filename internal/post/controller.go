// Package post implements the post/media lifecycle controller: the one place
// that keeps a post record and its featured image consistent across create,
// update and delete.
package post

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/embrace-blog/embrace/internal/auth"
	"github.com/embrace-blog/embrace/internal/media"
	"github.com/embrace-blog/embrace/internal/model"
	"github.com/embrace-blog/embrace/internal/repository"
	"github.com/embrace-blog/embrace/internal/slug"
	"github.com/embrace-blog/embrace/internal/sse"
)

var ctrlLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	ctrlLogger = l
}

// ImageUpload is a featured image as received from the form.
type ImageUpload struct {
	Data        []byte
	ContentType string
}

// CreatePayload carries everything a create needs. Slug is optional; when
// empty it is derived from the title. The image is mandatory on create.
type CreatePayload struct {
	Title   string
	Content string
	Status  model.Status
	Slug    string
	Image   *ImageUpload
	Actor   *model.Actor
}

// UpdatePayload carries the fields an update may change. Nil fields are left
// as they are. Supplying a title without a slug re-derives the slug; a
// supplied slug always wins.
type UpdatePayload struct {
	Title   *string
	Content *string
	Status  *model.Status
	Slug    *string
	Image   *ImageUpload
	Actor   *model.Actor
}

// DeleteOutcome reports a successful delete. CleanupWarning is non-nil when
// the post record is gone but the media delete failed; the image is orphaned
// and left to the out-of-band cleanup.
type DeleteOutcome struct {
	CleanupWarning error
}

type Controller struct {
	repo  repository.PostRepository
	store media.Store

	// events is optional; when set, successful mutations are broadcast so
	// listing screens can refresh.
	events *sse.Clients

	maxTitleLen int
	subCallTime time.Duration

	// inflight latches one operation per post (or per creating actor) to
	// absorb double submits.
	inflight sync.Map
}

func NewController(repo repository.PostRepository, store media.Store, events *sse.Clients, maxTitleLen int, subCallTime time.Duration) *Controller {
	return &Controller{
		repo:  repo,
		store: store,

		events: events,

		maxTitleLen: maxTitleLen,
		subCallTime: subCallTime,
	}
}

// Create validates the payload, uploads the image, then creates the post
// record. Ordering matters: a failed upload leaves nothing behind, and a
// failed record insert triggers a compensating delete of the fresh upload.
func (c *Controller) Create(ctx context.Context, payload CreatePayload) (*model.Post, error) {
	if payload.Actor == nil || payload.Actor.ID == "" {
		return nil, fmt.Errorf("%w: missing actor", ErrForbidden)
	}

	postSlug := payload.Slug
	if postSlug == "" {
		postSlug = slug.Derive(payload.Title)
	}
	status := payload.Status
	if status == "" {
		status = model.StatusActive
	}

	// Validation first; no side effects on any violation.
	if err := c.validateTitle(payload.Title); err != nil {
		return nil, err
	}
	if !slug.IsValid(postSlug) {
		return nil, fmt.Errorf("%w: invalid slug %q", ErrValidation, postSlug)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}
	if payload.Image == nil || len(payload.Image.Data) == 0 {
		return nil, fmt.Errorf("%w: featured image is required", ErrValidation)
	}

	release, err := c.acquire("create:" + string(payload.Actor.ID))
	if err != nil {
		return nil, err
	}
	defer release()

	// Abandoning the caller must not abort a half-done sequence; sub-calls
	// get their own timeouts instead.
	opCtx := context.WithoutCancel(ctx)

	var rb rollback
	defer rb.run(opCtx)

	obj, err := c.upload(opCtx, payload.Image)
	if err != nil {
		return nil, err
	}
	rb.add("delete uploaded media "+string(obj.ID), func(ctx context.Context) error {
		return c.store.Delete(ctx, obj.ID)
	})

	subCtx, cancel := c.subCallCtx(opCtx)
	created, err := c.repo.Create(subCtx, &model.Post{
		Title:           payload.Title,
		Slug:            postSlug,
		Content:         template.HTML(payload.Content),
		Status:          status,
		FeaturedImageID: obj.ID,
		AuthorID:        payload.Actor.ID,
	})
	cancel()
	if err != nil {
		// rb compensates for the upload on the way out.
		if errors.Is(err, repository.ErrConflict) {
			return nil, errors.Join(ErrConflict, err)
		}
		return nil, errors.Join(ErrPostCreate, err)
	}

	rb.clear()
	c.broadcast(sse.Event{Kind: sse.EventCreated, Slug: created.Slug})
	return created, nil
}

// Update fetches and authorizes, then applies the image-swap ordering:
// upload new, write record, delete old. The post never references a missing
// image; a failed record write at worst orphans the new upload.
func (c *Controller) Update(ctx context.Context, id model.PostID, payload UpdatePayload) (*model.Post, error) {
	release, err := c.acquire("post:" + string(id))
	if err != nil {
		return nil, err
	}
	defer release()

	opCtx := context.WithoutCancel(ctx)

	subCtx, cancel := c.subCallCtx(opCtx)
	existing, err := c.repo.GetByID(subCtx, id)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.Join(ErrNotFound, err)
		}
		return nil, err
	}

	if !auth.CanMutate(payload.Actor, existing) {
		return nil, fmt.Errorf("%w: actor is not the author", ErrForbidden)
	}

	fields := repository.PostUpdate{
		Title:   payload.Title,
		Content: payload.Content,
		Status:  payload.Status,
		Slug:    payload.Slug,
	}
	if payload.Title != nil {
		if err := c.validateTitle(*payload.Title); err != nil {
			return nil, err
		}
		// A changed title re-derives the slug unless the author supplied
		// one explicitly.
		if payload.Slug == nil && *payload.Title != existing.Title {
			derived := slug.Derive(*payload.Title)
			fields.Slug = &derived
		}
	}
	if fields.Slug != nil && !slug.IsValid(*fields.Slug) {
		return nil, fmt.Errorf("%w: invalid slug %q", ErrValidation, *fields.Slug)
	}
	if payload.Status != nil && !payload.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, *payload.Status)
	}

	oldImage := existing.FeaturedImageID

	if payload.Image != nil {
		obj, err := c.upload(opCtx, payload.Image)
		if err != nil {
			// All-or-nothing: the old post and old image are untouched.
			return nil, err
		}
		fields.FeaturedImageID = &obj.ID
	}

	subCtx, cancel = c.subCallCtx(opCtx)
	updated, err := c.repo.Update(subCtx, id, fields)
	cancel()
	if err != nil {
		// No compensation here: deleting the old image would break the
		// still-standing post, and the fresh upload (if any) is merely a
		// transient orphan for the out-of-band cleanup.
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, errors.Join(ErrNotFound, err)
		case errors.Is(err, repository.ErrConflict):
			return nil, errors.Join(ErrConflict, err)
		}
		return nil, err
	}

	// Only now is the old image unreferenced and safe to reclaim.
	if payload.Image != nil && oldImage != "" && oldImage != updated.FeaturedImageID {
		c.reclaim(opCtx, oldImage)
	}

	c.broadcast(sse.Event{Kind: sse.EventUpdated, Slug: updated.Slug})
	return updated, nil
}

// Delete removes the post record first, then its media object. Record-first
// is deliberate: if the media delete then fails we are left with an orphaned
// image and no dangling reference, the safer of the two inconsistent states.
func (c *Controller) Delete(ctx context.Context, id model.PostID, actor *model.Actor) (*DeleteOutcome, error) {
	release, err := c.acquire("post:" + string(id))
	if err != nil {
		return nil, err
	}
	defer release()

	opCtx := context.WithoutCancel(ctx)

	subCtx, cancel := c.subCallCtx(opCtx)
	existing, err := c.repo.GetByID(subCtx, id)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.Join(ErrNotFound, err)
		}
		return nil, err
	}

	// Re-checked here regardless of what the UI showed.
	if !auth.CanMutate(actor, existing) {
		return nil, fmt.Errorf("%w: actor is not the author", ErrForbidden)
	}

	subCtx, cancel = c.subCallCtx(opCtx)
	err = c.repo.Delete(subCtx, id)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.Join(ErrNotFound, err)
		}
		return nil, err
	}

	outcome := &DeleteOutcome{}
	if existing.FeaturedImageID != "" {
		if warn := c.reclaim(opCtx, existing.FeaturedImageID); warn != nil {
			outcome.CleanupWarning = warn
		}
	}

	c.broadcast(sse.Event{Kind: sse.EventDeleted, Slug: existing.Slug})
	return outcome, nil
}

func (c *Controller) validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if c.maxTitleLen > 0 && utf8.RuneCountInString(title) > c.maxTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", ErrValidation, c.maxTitleLen)
	}
	return nil
}

func (c *Controller) upload(ctx context.Context, image *ImageUpload) (*model.MediaObject, error) {
	subCtx, cancel := c.subCallCtx(ctx)
	defer cancel()

	obj, err := c.store.Upload(subCtx, image.Data, image.ContentType)
	if err != nil {
		return nil, errors.Join(ErrMediaUpload, err)
	}
	return obj, nil
}

// reclaim deletes an unreferenced media object. Already-gone is a no-op;
// any other failure is the non-fatal cleanup warning.
func (c *Controller) reclaim(ctx context.Context, id model.MediaID) error {
	subCtx, cancel := c.subCallCtx(ctx)
	defer cancel()

	err := c.store.Delete(subCtx, id)
	if err == nil || errors.Is(err, media.ErrNotFound) {
		return nil
	}

	warn := errors.Join(ErrMediaCleanup, err)
	ctrlLogger.Warn().Err(warn).Str("media_id", string(id)).Msg("Orphaned media object left behind")
	return warn
}

func (c *Controller) acquire(key string) (func(), error) {
	if _, loaded := c.inflight.LoadOrStore(key, struct{}{}); loaded {
		return nil, ErrInFlight
	}
	return func() { c.inflight.Delete(key) }, nil
}

func (c *Controller) subCallCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.subCallTime <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.subCallTime)
}

func (c *Controller) broadcast(event sse.Event) {
	if c.events != nil {
		c.events.Broadcast(event)
	}
}

// rollback is an explicit list of compensating steps, run in reverse order
// when an operation bails out part-way. Compensation failures are logged,
// never escalated over the primary error.
type rollback struct {
	steps []rollbackStep
}

type rollbackStep struct {
	name string
	fn   func(context.Context) error
}

func (r *rollback) add(name string, fn func(context.Context) error) {
	r.steps = append(r.steps, rollbackStep{name: name, fn: fn})
}

// clear marks the operation committed; pending steps are dropped.
func (r *rollback) clear() {
	r.steps = nil
}

func (r *rollback) run(ctx context.Context) {
	for i := len(r.steps) - 1; i >= 0; i-- {
		step := r.steps[i]
		if err := step.fn(ctx); err != nil {
			ctrlLogger.Warn().Err(err).Str("step", step.name).Msg("Compensation step failed")
		} else {
			ctrlLogger.Info().Str("step", step.name).Msg("Compensation step executed")
		}
	}
	r.steps = nil
}
