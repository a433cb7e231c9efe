// Package api serves streaks over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"cdr.dev/slog"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/writewithwrabit/streaks/auth"
	"github.com/writewithwrabit/streaks/models"
	"github.com/writewithwrabit/streaks/streak"
)

type Options struct {
	Sessions       *streak.Sessions
	Verifier       auth.TokenVerifier
	Logger         slog.Logger
	AllowedOrigins []string
	// Gatherer backs /metrics. The endpoint is not mounted when nil.
	Gatherer prometheus.Gatherer
}

type API struct {
	sessions *streak.Sessions
	logger   slog.Logger
}

// StreakResponse is the body of GET /streak.
type StreakResponse struct {
	Record *models.Streak `json:"record"`
	Status streak.Status  `json:"status"`
	Error  string         `json:"error,omitempty"`
}

// ActivityResponse is the body of POST /streak/activity. CurrentStreak is
// null when nobody is signed in or the streak could not be saved.
type ActivityResponse struct {
	CurrentStreak *int `json:"currentStreak"`
}

// New returns the router for the streaks service.
func New(opts Options) http.Handler {
	api := &API{
		sessions: opts.Sessions,
		logger:   opts.Logger.Named("api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(opts.Verifier, api.logger))
		r.Get("/streak", api.getStreak)
		r.Post("/streak/activity", api.recordActivity)
	})

	return r
}

func (api *API) getStreak(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	engine, release := api.sessions.Get(ctx, auth.UserID(ctx))
	defer release()
	snap := engine.Snapshot()

	api.write(w, r, http.StatusOK, StreakResponse{
		Record: snap.Record,
		Status: snap.Status,
		Error:  snap.Error,
	})
}

func (api *API) recordActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	engine, release := api.sessions.Get(ctx, auth.UserID(ctx))
	defer release()

	var res ActivityResponse
	if current, ok := engine.RecordActivity(ctx); ok {
		res.CurrentStreak = &current
	}
	api.write(w, r, http.StatusOK, res)
}

func (api *API) write(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		api.logger.Warn(r.Context(), "write response", slog.Error(err))
	}
}
