package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/atelierhq/handoff-api/internal/api"
	apiMiddleware "github.com/atelierhq/handoff-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)
	r.Use(apiMiddleware.IdentityMiddleware)

	handoffHandler := api.NewHandoffHandler(app.handoffService)

	r.Route("/api/handoff", func(r chi.Router) {
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", handoffHandler.CreateTask)
			r.Get("/", handoffHandler.ListTasks)
			r.Post("/claim", handoffHandler.ClaimNext)
			r.Route("/{ref}", func(r chi.Router) {
				r.Get("/", handoffHandler.GetTask)
				r.Patch("/", handoffHandler.UpdateTask)
				r.Post("/claim", handoffHandler.ClaimTask)
				r.Post("/progress", handoffHandler.UpdateProgress)
				r.Post("/complete", handoffHandler.CompleteTask)
				r.Post("/block", handoffHandler.BlockTask)
			})
		})
		r.Get("/mine", handoffHandler.MyTasks)
		r.Get("/results", handoffHandler.Results)
		r.Get("/projects", handoffHandler.ListProjects)
		r.Get("/projects/{name}", handoffHandler.ProjectStatus)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
