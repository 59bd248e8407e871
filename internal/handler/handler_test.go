package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/embrace-blog/embrace/internal/media"
	"github.com/embrace-blog/embrace/internal/model"
	"github.com/embrace-blog/embrace/internal/post"
	"github.com/embrace-blog/embrace/internal/repository"
	"github.com/embrace-blog/embrace/internal/routes"
	"github.com/embrace-blog/embrace/internal/sse"
)

type stubAuth struct {
	actor *model.Actor
	err   error
}

func (s *stubAuth) WithHeaderAuthorization() func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler { return h }
}

func (s *stubAuth) ActorFromRequest(r *http.Request) (*model.Actor, error) {
	return s.actor, s.err
}

type stubRepo struct {
	posts map[model.PostID]*model.Post
	next  int
}

func newStubRepo() *stubRepo {
	return &stubRepo{posts: make(map[model.PostID]*model.Post)}
}

func (s *stubRepo) Create(ctx context.Context, p *model.Post) (*model.Post, error) {
	for _, existing := range s.posts {
		if existing.Slug == p.Slug {
			return nil, repository.ErrConflict
		}
	}
	s.next++
	created := *p
	created.ID = model.PostID(fmt.Sprintf("post-%d", s.next))
	s.posts[created.ID] = &created
	return &created, nil
}

func (s *stubRepo) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	for _, p := range s.posts {
		if p.Slug == slug {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubRepo) GetByID(ctx context.Context, id model.PostID) (*model.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *stubRepo) Update(ctx context.Context, id model.PostID, fields repository.PostUpdate) (*model.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if fields.Title != nil {
		p.Title = *fields.Title
	}
	if fields.Slug != nil {
		p.Slug = *fields.Slug
	}
	if fields.Content != nil {
		p.Content = template.HTML(*fields.Content)
	}
	if fields.Status != nil {
		p.Status = *fields.Status
	}
	if fields.FeaturedImageID != nil {
		p.FeaturedImageID = *fields.FeaturedImageID
	}
	copied := *p
	return &copied, nil
}

func (s *stubRepo) Delete(ctx context.Context, id model.PostID) error {
	if _, ok := s.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *stubRepo) ListByStatus(ctx context.Context, status model.Status) ([]model.Post, error) {
	var out []model.Post
	for _, p := range s.posts {
		if p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubRepo) ReferencedMediaIDs(ctx context.Context) ([]model.MediaID, error) {
	return nil, nil
}

func newTestMux(repo repository.PostRepository, authP *stubAuth) *http.ServeMux {
	store := media.NewMemoryStore(0)
	events := sse.NewClients()
	ctrl := post.NewController(repo, store, events, 200, 0)
	h := New(ctrl, repo, store, authP, events)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+routes.PostBySlug, h.ServePostBySlug)
	mux.HandleFunc("GET "+routes.PostsByList, h.ServePostList)
	mux.HandleFunc("GET "+routes.MediaPreview, h.ServeMediaPreview)
	mux.HandleFunc(routes.APIPostNew, h.ServeCreatePost)
	mux.HandleFunc(routes.APIPosts, h.ServePost)
	return mux
}

func multipartBody(t *testing.T, fields map[string]string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if withImage {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="pic.png"`)
		header.Set("Content-Type", "image/png")
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte{0x89, 'P', 'N', 'G'})
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestServeCreatePost(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		mux := newTestMux(newStubRepo(), &stubAuth{actor: &model.Actor{ID: "u1"}})

		body, ctype := multipartBody(t, map[string]string{
			"title":   "Hello World!",
			"content": "<p>hi</p>",
			"status":  "active",
		}, true)

		req := httptest.NewRequest(http.MethodPost, "/api/posts/new", body)
		req.Header.Set("Content-Type", ctype)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body)
		}

		var got postView
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Slug != "hello-world" || got.AuthorID != "u1" || got.FeaturedImageID == "" {
			t.Errorf("created post = %+v", got)
		}
	})

	t.Run("missing image is a 400", func(t *testing.T) {
		mux := newTestMux(newStubRepo(), &stubAuth{actor: &model.Actor{ID: "u1"}})

		body, ctype := multipartBody(t, map[string]string{"title": "Hello"}, false)
		req := httptest.NewRequest(http.MethodPost, "/api/posts/new", body)
		req.Header.Set("Content-Type", ctype)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unauthenticated is a 401", func(t *testing.T) {
		mux := newTestMux(newStubRepo(), &stubAuth{err: errors.New("no session")})

		body, ctype := multipartBody(t, map[string]string{"title": "Hello"}, true)
		req := httptest.NewRequest(http.MethodPost, "/api/posts/new", body)
		req.Header.Set("Content-Type", ctype)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestServePostDelete(t *testing.T) {
	repo := newStubRepo()
	seeded, err := repo.Create(context.Background(), &model.Post{
		Title: "Hello", Slug: "hello", Status: model.StatusActive, AuthorID: "u1",
	})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("non-author gets 403", func(t *testing.T) {
		mux := newTestMux(repo, &stubAuth{actor: &model.Actor{ID: "u2"}})

		req := httptest.NewRequest(http.MethodDelete, "/api/posts/"+string(seeded.ID), nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("author deletes", func(t *testing.T) {
		mux := newTestMux(repo, &stubAuth{actor: &model.Actor{ID: "u1"}})

		req := httptest.NewRequest(http.MethodDelete, "/api/posts/"+string(seeded.ID), nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
		}
	})

	t.Run("gone post is 404", func(t *testing.T) {
		mux := newTestMux(repo, &stubAuth{actor: &model.Actor{ID: "u1"}})

		req := httptest.NewRequest(http.MethodDelete, "/api/posts/"+string(seeded.ID), nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestServePostBySlug(t *testing.T) {
	repo := newStubRepo()
	if _, err := repo.Create(context.Background(), &model.Post{
		Title: "Hello", Slug: "hello", Status: model.StatusActive, AuthorID: "u1",
	}); err != nil {
		t.Fatal(err)
	}
	mux := newTestMux(repo, &stubAuth{})

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts/hello", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts/nope", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}
