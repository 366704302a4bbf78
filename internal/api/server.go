// Package api exposes the assistant over HTTP: the Twilio webhook, a health
// probe, and bearer-protected admin endpoints. The same admin operations are
// offered as MCP tools.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/anbtech/storebot/internal/assistant"
	"github.com/anbtech/storebot/internal/catalog"
	"github.com/anbtech/storebot/internal/ledger"
	"github.com/anbtech/storebot/internal/session"
)

const maxRequestBodySize = 1 << 20 // 1MB

const welcomeText = "Welcome to ANB Tech Supplies AI WhatsApp Assistant!"

// Deps holds everything the HTTP and MCP surfaces need.
type Deps struct {
	Assistant *assistant.Service
	Ledger    ledger.Ledger
	Sessions  session.Store
	Catalog   *catalog.Catalog

	// AdminToken protects /admin. Empty disables the admin routes.
	AdminToken     string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewHandler returns the root http.Handler.
func NewHandler(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Catalog == nil {
		d.Catalog = catalog.Default()
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(Tracing("storebot/api"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", handleWelcome)
	r.Get("/health", handleHealth)
	r.Post("/webhook", handleWebhook(d))

	if d.AdminToken != "" {
		r.Route("/admin", func(r chi.Router) {
			r.Use(BearerAuth(d.AdminToken))
			r.Get("/report", handleReport(d))
			r.Get("/ledger", handleLedger(d))
			r.Post("/promises", handlePromise(d))
			r.Get("/sessions", handleSessions(d))
		})
	} else {
		d.Logger.Info("admin API disabled: no admin token configured")
	}

	return r
}

func handleWelcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(welcomeText))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}
