package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"pricewatch/models"
	"pricewatch/repository"
	"pricewatch/scheduler"
)

// Handlers bundles the HTTP API endpoints over the tracked URL list,
// the history log and the checker.
type Handlers struct {
	urls    *repository.URLRepository
	history *repository.HistoryRepository
	checker *scheduler.PriceChecker
}

// NewHandlers creates the API handlers.
func NewHandlers(urls *repository.URLRepository, history *repository.HistoryRepository, checker *scheduler.PriceChecker) *Handlers {
	return &Handlers{urls: urls, history: history, checker: checker}
}

// GetTrackedURLs returns every tracked URL with its last recorded price.
func (h *Handlers) GetTrackedURLs(w http.ResponseWriter, r *http.Request) {
	urls, err := h.urls.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read tracked URLs")
		return
	}

	tracked := make([]models.TrackedURL, 0, len(urls))
	for _, u := range urls {
		last, err := h.history.LastPrice(u)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read history")
			return
		}
		tracked = append(tracked, models.TrackedURL{URL: u, LastPrice: last})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(tracked),
		"urls":  tracked,
	})
}

// AddURLToTrack appends a new URL to the tracked list.
func (h *Handlers) AddURLToTrack(w http.ResponseWriter, r *http.Request) {
	var req models.AddURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeError(w, http.StatusBadRequest, "url must be an absolute http(s) URL")
		return
	}

	if err := h.urls.Add(req.URL); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add URL")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": req.URL, "status": "tracked"})
}

// GetPriceHistory returns history entries, optionally filtered by the
// url query parameter and capped by limit (default 50).
func (h *Handlers) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.history.History(r.URL.Query().Get("url"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"history": entries,
	})
}

// CheckNow triggers an asynchronous pass over all tracked URLs.
func (h *Handlers) CheckNow(w http.ResponseWriter, r *http.Request) {
	h.checker.CheckNow()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "check started"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
