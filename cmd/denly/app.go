package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/bjaus/denly"
)

type user struct {
	ID   int    `json:"id" xml:"id" yaml:"id"`
	Name string `json:"name" xml:"name" yaml:"name"`
}

// created answers 201 with the new user.
type created struct {
	user
}

func (created) StatusCode() int { return http.StatusCreated }

type upload struct {
	Field       string `json:"field" yaml:"field"`
	Filename    string `json:"filename" yaml:"filename"`
	ContentType string `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Size        int    `json:"size" yaml:"size"`
}

// userStore is an in-memory user table.
type userStore struct {
	mu     sync.Mutex
	users  map[int]user
	nextID int
}

func newUserStore() *userStore {
	return &userStore{
		users:  map[int]user{1: {ID: 1, Name: "Alice"}},
		nextID: 2,
	}
}

func (s *userStore) get(id int) (user, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *userStore) add(name string) user {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user{ID: s.nextID, Name: name}
	s.users[u.ID] = u
	s.nextID++
	return u
}

// newApp builds the sample application's router.
func newApp(cfg *denly.Config, logger *slog.Logger) (*denly.Router, error) {
	r := denly.New(append(cfg.RouterOptions(), denly.WithLogger(logger))...)

	if cfg.Compress.MinSize > 0 {
		mw, err := denly.Compress(cfg.Compress)
		if err != nil {
			return nil, err
		}
		r.Use(mw)
	}

	store := newUserStore()

	denly.Get(r, "/", func(_ context.Context, _ *denly.Context) (any, error) {
		return "denly is running", nil
	}, denly.WithName("index"))

	users := r.Group("/users", denly.WithGroupTags("users"))

	denly.Get(users, "/:id<int>", func(_ context.Context, c *denly.Context) (any, error) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return nil, denly.Error(http.StatusBadRequest, "invalid id")
		}
		u, ok := store.get(id)
		if !ok {
			return nil, denly.ErrorBody(http.StatusNotFound, map[string]string{"error": "user not found"})
		}
		return u, nil
	}, denly.WithName("user"), denly.WithSummary("Get a user by ID"))

	denly.Post(users, "/", func(_ context.Context, c *denly.Context) (any, error) {
		name := c.Form().Get("name")
		if name == "" {
			return nil, denly.Error(http.StatusBadRequest, "name is required")
		}
		return created{store.add(name)}, nil
	}, denly.WithName("createUser"), denly.WithSummary("Create a user from a form"))

	denly.Post(r, "/upload", func(_ context.Context, c *denly.Context) (any, error) {
		files := c.Form().Files()
		if len(files) == 0 {
			return nil, denly.Error(http.StatusBadRequest, "no files")
		}
		out := make([]upload, len(files))
		for i, f := range files {
			out[i] = upload{
				Field:       f.Key,
				Filename:    f.Filename,
				ContentType: f.ContentType,
				Size:        len(f.Data),
			}
		}
		return out, nil
	}, denly.WithName("upload"), denly.WithSummary("Describe uploaded files"))

	denly.Get(r, "/files/*path", func(_ context.Context, c *denly.Context) (any, error) {
		return c.Param("path"), nil
	}, denly.WithName("files"))

	denly.Get(r, "/login", func(_ context.Context, c *denly.Context) (any, error) {
		c.Redirect("/")
		return nil, nil
	}, denly.WithName("login"), denly.WithSummary("Redirect to the index"))

	denly.Get(r, "/forbidden", func(_ context.Context, _ *denly.Context) (any, error) {
		return nil, denly.Error(http.StatusForbidden, "forbidden")
	})

	denly.Get(r, "/boom", func(_ context.Context, _ *denly.Context) (any, error) {
		panic(errors.New("boom"))
	})

	r.ServeRoutes("/_routes")

	return r, nil
}
