package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/listing-api/internal/logger"
	"github.com/yourorg/listing-api/mls"
)

type ListingsDeps struct {
	Listings ListingSource
}

func RegisterListings(r chi.Router, d ListingsDeps) {
	r.Get("/listings/{listingKey}", func(w http.ResponseWriter, req *http.Request) {
		key := strings.TrimSpace(chi.URLParam(req, "listingKey"))
		if key == "" {
			writeError(w, req, http.StatusBadRequest, "listing_key_required", "")
			return
		}
		if d.Listings == nil || !d.Listings.Configured() {
			writeError(w, req, http.StatusServiceUnavailable, "not_configured", mls.ErrNotConfigured.Error())
			return
		}
		rec := d.Listings.GetListing(req.Context(), key)
		if rec == nil {
			writeError(w, req, http.StatusNotFound, "not_found", "")
			return
		}
		if len(rec.Media) == 0 {
			rec.Media = d.Listings.FetchMedia(req.Context(), []string{rec.ListingKey})[rec.ListingKey]
		}
		render.JSON(w, req, mls.Normalize(*rec))
	})

	r.Get("/listings/{listingKey}/photos", func(w http.ResponseWriter, req *http.Request) {
		key := strings.TrimSpace(chi.URLParam(req, "listingKey"))
		if key == "" {
			writeError(w, req, http.StatusBadRequest, "listing_key_required", "")
			return
		}
		if d.Listings == nil || !d.Listings.Configured() {
			writeError(w, req, http.StatusServiceUnavailable, "not_configured", mls.ErrNotConfigured.Error())
			return
		}
		photos := mls.DedupeImages(d.Listings.FetchMedia(req.Context(), []string{key})[key])
		logger.FromContext(req.Context()).Debug("served photos", "listing_key", key, "count", len(photos))
		render.JSON(w, req, map[string]any{"ok": true, "count": len(photos), "photos": photos})
	})
}
