package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pricewatch/config"
	"pricewatch/models"
	"pricewatch/notifier"
	"pricewatch/repository"
	"pricewatch/scheduler"
	"pricewatch/scraper"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*mux.Router, *repository.URLRepository, *repository.HistoryRepository) {
	dir := t.TempDir()

	urls := repository.NewURLRepository(filepath.Join(dir, "urls.txt"))
	history := repository.NewHistoryRepository(dir)

	catalog, err := config.LoadSelectorCatalog("")
	require.NoError(t, err)

	checker := scheduler.NewPriceChecker(
		urls,
		history,
		scraper.NewFetcher(5*time.Second),
		scraper.NewPageExtractor(catalog),
		notifier.NewDiscordNotifier(""),
		0,
	)

	h := NewHandlers(urls, history, checker)

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/urls", h.GetTrackedURLs).Methods("GET")
	api.HandleFunc("/urls", h.AddURLToTrack).Methods("POST")
	api.HandleFunc("/urls/history", h.GetPriceHistory).Methods("GET")
	api.HandleFunc("/check", h.CheckNow).Methods("POST")
	return r, urls, history
}

func doRequest(router *mux.Router, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetTrackedURLs(t *testing.T) {
	router, urls, history := newTestRouter(t)

	require.NoError(t, urls.Add("https://shop.example.com/widget"))
	require.NoError(t, urls.Add("https://shop.example.com/gadget"))

	price := 49.99
	require.NoError(t, history.Append(models.ExtractionRecord{
		URL:      "https://shop.example.com/widget",
		Origin:   "shop.example.com",
		Title:    "Widget",
		Price:    &price,
		Currency: "EUR",
	}, time.Now()))

	rec := doRequest(router, "GET", "/api/v1/urls", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Count int                 `json:"count"`
		URLs  []models.TrackedURL `json:"urls"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)

	assert.Equal(t, "https://shop.example.com/widget", resp.URLs[0].URL)
	require.NotNil(t, resp.URLs[0].LastPrice)
	assert.Equal(t, 49.99, *resp.URLs[0].LastPrice)
	assert.Nil(t, resp.URLs[1].LastPrice, "no history yet for the gadget")
}

func TestGetTrackedURLs_EmptyList(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(router, "GET", "/api/v1/urls", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestAddURLToTrack(t *testing.T) {
	router, urls, _ := newTestRouter(t)

	rec := doRequest(router, "POST", "/api/v1/urls", `{"url":"https://shop.example.com/widget"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	list, err := urls.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://shop.example.com/widget"}, list)
}

func TestAddURLToTrack_Validation(t *testing.T) {
	router, urls, _ := newTestRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"url":`},
		{"empty url", `{"url":""}`},
		{"relative url", `{"url":"/widget"}`},
		{"missing host", `{"url":"https://"}`},
		{"wrong scheme", `{"url":"ftp://shop.example.com/widget"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(router, "POST", "/api/v1/urls", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	list, err := urls.List()
	require.NoError(t, err)
	assert.Empty(t, list, "rejected URLs must not be persisted")
}

func TestGetPriceHistory(t *testing.T) {
	router, _, history := newTestRouter(t)

	widget := "https://shop.example.com/widget"
	for _, p := range []float64{10, 20, 30} {
		price := p
		require.NoError(t, history.Append(models.ExtractionRecord{
			URL:      widget,
			Origin:   "shop.example.com",
			Title:    "Widget",
			Price:    &price,
			Currency: "EUR",
		}, time.Now()))
	}

	rec := doRequest(router, "GET", "/api/v1/urls/history?url="+widget+"&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count   int                   `json:"count"`
		History []models.HistoryEntry `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, 20.0, *resp.History[0].Price)
	assert.Equal(t, 30.0, *resp.History[1].Price)
}

func TestGetPriceHistory_Empty(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(router, "GET", "/api/v1/urls/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestCheckNow(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(router, "POST", "/api/v1/check", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "check started", resp["status"])
}
