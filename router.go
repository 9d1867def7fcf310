package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"

	httpapi "github.com/yourorg/listing-api/http"
	"github.com/yourorg/listing-api/internal/logger"
)

type RouterDeps struct {
	Listings           httpapi.ListingSource
	Logger             *slog.Logger
	RateLimitPerMinute int
}

func BuildRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if d.Logger != nil {
		r.Use(logger.Middleware(d.Logger))
	}
	if d.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(d.RateLimitPerMinute, 1*time.Minute)) // protect upstream quota
	}
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]any{"ok": true, "mls_configured": d.Listings != nil && d.Listings.Configured()})
	})

	httpapi.RegisterSearch(r, httpapi.SearchDeps{Listings: d.Listings})
	httpapi.RegisterListings(r, httpapi.ListingsDeps{Listings: d.Listings})
	return r
}
