package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayush/fundraiser/backend/internal/auth"
	"github.com/ayush/fundraiser/backend/internal/items"
	"github.com/ayush/fundraiser/backend/internal/middleware"
)

// Deps are the handlers and collaborators the router mounts.
type Deps struct {
	Auth           *auth.Handler
	Items          *items.Handler
	Sessions       auth.Sessions
	Registry       *prometheus.Registry
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	if d.Registry != nil {
		r.Use(middleware.NewMetrics(d.Registry).Handler)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if d.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", d.Auth.Register)
			r.Post("/login", d.Auth.Login)
			r.Post("/logout", d.Auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(d.Sessions))
				r.Get("/", d.Auth.Me)
				r.Put("/password", d.Auth.ChangePassword)
				d.Items.Routes(r)
			})
		})
		d.Items.PublicRoutes(r)
	})
	return r
}
