package main

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/samber/oops"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
)

type Blog struct {
	store     Store
	sessions  *Sessions
	hasher    PasswordHasher
	templates map[string]*template.Template
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
	newToken  func() (string, error)

	// dummyHash is verified against when a login names an unknown user.
	dummyHash string
}

func NewBlog(store Store, sessions *Sessions, hasher PasswordHasher, logger *slog.Logger, metrics *Metrics) (*Blog, error) {
	if store == nil {
		return nil, oops.Code("BLOG_INVALID_DEPS").Errorf("store is required")
	}
	if sessions == nil {
		return nil, oops.Code("BLOG_INVALID_DEPS").Errorf("sessions are required")
	}
	if hasher == nil {
		return nil, oops.Code("BLOG_INVALID_DEPS").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("BLOG_INVALID_DEPS").Errorf("logger is required")
	}
	if metrics == nil {
		return nil, oops.Code("BLOG_INVALID_DEPS").Errorf("metrics are required")
	}

	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}

	return &Blog{
		store:     store,
		sessions:  sessions,
		hasher:    hasher,
		templates: loadTemplates(),
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
		newToken:  generateToken,
		dummyHash: dummy,
	}, nil
}

// Handler returns the blog's routes wrapped in its middleware.
func (b *Blog) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", staticHandler())

	// Public routes
	mux.HandleFunc("GET /{$}", b.Home)
	mux.HandleFunc("GET /login", b.LoginForm)
	mux.HandleFunc("POST /login", b.Login)
	mux.HandleFunc("POST /register", b.Register)
	mux.HandleFunc("POST /logout", b.Logout)
	mux.HandleFunc("GET /post/{id}", b.Detail)

	// Protected routes
	mux.HandleFunc("GET /create-post", b.requireAuth(b.CreatePostForm))
	mux.HandleFunc("POST /create-post", b.requireAuth(b.CreatePost))
	mux.HandleFunc("GET /edit-post/{id}", b.requireAuth(b.EditPostForm))
	mux.HandleFunc("POST /edit-post/{id}", b.requireAuth(b.EditPost))
	mux.HandleFunc("POST /delete-post/{id}", b.requireAuth(b.DeletePost))

	return b.withRequestLog(b.withRecover(b.withSession(mux)))
}

func main() {
	cmd := newRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
