// Package rest is the HTTP transport of the intake service: a chi router,
// its middleware chain and the handlers that bind requests to services.
package rest

import (
	"net/http"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the collaborators the router binds to.
type Deps struct {
	Auth     Authenticator
	Roles    RoleChecker
	Accounts Accounts
	Intake   Intake
	Profiles Profiles
	Admin    Admin
}

// Options tune the transport.
type Options struct {
	CORSOrigins    []string
	MaxUploadBytes int64
}

// NewRouter creates and configures the chi router.
func NewRouter(d Deps, opts Options, log logging.Logger) *chi.Mux {
	h := &Handler{
		accounts:       d.Accounts,
		intake:         d.Intake,
		profiles:       d.Profiles,
		admin:          d.Admin,
		log:            log,
		maxUploadBytes: opts.MaxUploadBytes,
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = 32 << 20
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", common.AuthorizationHeaderName, "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	})

	r.Get("/healthz", h.Health)
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(authenticate(d.Auth, log))

		r.Get("/dashboard", h.Dashboard)
		r.Post("/analyze", h.Analyze)
		r.Get("/files", h.Files)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", h.Profile)
			r.Put("/update", h.UpdateProfile)
			r.Post("/upload-photo", h.UploadPhoto)
			r.Delete("/delete-photo", h.DeletePhoto)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin(d.Roles, log))

			r.Get("/users", h.ListUsers)
			r.Delete("/delete-user/{id}", h.DeleteUser)
			r.Put("/users/{id}/admin", h.SetAdmin)
		})
	})

	return r
}
