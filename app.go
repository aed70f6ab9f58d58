// Package galleryreport serves an admin report of blog posts that embed
// photo galleries, with per-post gallery and photo counts and the total
// size of the referenced attachments.
//
// The report pipeline lives in the gallery package; this package wires
// it to a SQLite store, the upload directory, and an Echo admin server.
package galleryreport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/galleryreport/gallery"
)

// App is the central application. It wires together the store, the
// report generator, handlers, and middleware.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Store     *Store
	Generator *gallery.Generator
	Logger    *zap.Logger

	loginLimiter *LoginLimiter
	clock        func() time.Time
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Logger: zap.NewNop(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Open initializes the store and report generator without starting the
// HTTP server. Start calls it; CLI commands call it directly.
func (a *App) Open() error {
	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("galleryreport: init store: %w", err)
		}
		a.Store = store
	}
	a.Generator = &gallery.Generator{
		Posts:    a.Store,
		Assets:   a.Store,
		Resolver: gallery.NewResolver(os.DirFS(a.Config.UploadsDir), a.Config.IncludeOriginalInTotal),
		PerPage:  a.Config.PerPage,
		Workers:  a.Config.Workers,
		Logger:   a.Logger.Named("report"),
	}
	return nil
}

// Start validates config, opens the store, and serves until the server stops.
func (a *App) Start() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("galleryreport: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("galleryreport: SessionSecret is required")
	}
	if err := a.Open(); err != nil {
		return err
	}

	a.setupServer()

	a.Logger.Info("listening", zap.String("addr", a.Config.Addr))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Report generates one page of the gallery report.
func (a *App) Report(ctx context.Context, page int, sort gallery.SortSpec) (*gallery.Report, error) {
	if a.Generator == nil {
		if err := a.Open(); err != nil {
			return nil, err
		}
	}
	return a.Generator.Generate(ctx, gallery.ReportQuery{Page: page, Sort: sort})
}

func (a *App) setupServer() {
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.setupMiddleware()
	a.setupRoutes()
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/galleries/", a.handleGalleries)
	e.GET("/admin/galleries/json/", a.handleGalleriesJSON)
	e.GET("/admin/posts/:id/", a.handlePostAttachments)
	e.POST("/admin/media/upload/", a.handleImageUpload)
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
