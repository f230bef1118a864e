package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tombers/tombers/internal/handlers"
	"github.com/tombers/tombers/internal/middleware"
	"github.com/tombers/tombers/internal/service"
	"github.com/tombers/tombers/internal/web"
)

func newRouter(a *app) (http.Handler, error) {
	authSvc := service.NewAuthService(a.users, a.hasher, a.sessions, a.log.Named("auth"))
	profileSvc := service.NewProfileService(a.users, a.log.Named("profile"))
	projectSvc := service.NewProjectService(a.projects, a.users, a.log.Named("projects"))

	pages, err := web.New(projectSvc, profileSvc, a.log.Named("web"))
	if err != nil {
		return nil, err
	}

	authHandler := &handlers.AuthHandler{
		Auth:         authSvc,
		CookieTTL:    a.sessions.TTL(),
		SecureCookie: a.cfg.CookieSecure,
	}
	profileHandler := &handlers.ProfileHandler{Profiles: profileSvc}
	projectHandler := &handlers.ProjectHandler{Projects: projectSvc}
	authLimiter := middleware.AuthRateLimiter().TrustProxies(a.cfg.TrustedProxyNets())

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer(a.log))
	r.Use(middleware.RequestLog(a.log.Named("http")))
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(a.cfg.TLSEnabled()))
	r.Use(middleware.CORS(a.cfg.CORSOrigins()))
	r.Use(middleware.MaxBytes(a.cfg.MaxBodyBytes))

	// ===== Operational =====
	r.Get("/health", handlers.Health)
	r.Get("/ready", handlers.Ready(a.log, map[string]handlers.Pinger{
		"users":    a.users,
		"projects": a.projects,
	}))
	r.Handle("/metrics", promhttp.Handler())

	// ===== Pages =====
	r.Handle("/static/*", web.Static())
	r.With(middleware.OptionalSession(a.sessions, a.log)).Get("/", pages.Index)
	r.Group(func(r chi.Router) {
		r.Use(middleware.PageSession(a.sessions, a.log, "/"))
		r.Get("/feed", pages.Feed)
		r.Get("/bio", pages.Bio)
	})

	// ===== API =====
	r.Route("/api", func(r chi.Router) {
		r.With(authLimiter.Middleware).Post("/register", authHandler.Register)
		r.With(authLimiter.Middleware).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(a.sessions, a.log))

			r.Get("/user/profile", profileHandler.GetProfile)
			r.Put("/user/profile", profileHandler.UpdateProfile)
			r.Get("/users/search", profileHandler.SearchUsers)
			r.Get("/users/available", profileHandler.AvailableUsers)

			r.Get("/projects", projectHandler.ListProjects)
			r.Post("/projects", projectHandler.CreateProject)
			r.Get("/projects/search", projectHandler.SearchProjects)
			r.Get("/projects/active", projectHandler.ActiveProjects)
			r.Get("/projects/incomplete", projectHandler.IncompleteProjects)
			r.Get("/projects/{id}", projectHandler.GetProject)
			r.Put("/projects/{id}", projectHandler.UpdateProject)
			r.Delete("/projects/{id}", projectHandler.DeleteProject)
			r.Post("/projects/{id}/like", projectHandler.LikeProject)
			r.Post("/projects/{id}/dislike", projectHandler.DislikeProject)
			r.Get("/projects/{id}/interested", projectHandler.InterestedUsers)
			r.Post("/projects/{id}/manage-interested", projectHandler.ManageInterested)
		})
	})

	return r, nil
}
