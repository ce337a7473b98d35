package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/finder/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	itemsHandler := handlers.NewItemsHandler(s.registrar, s.catalog)
	searchHandler := handlers.NewSearchHandler(s.orchestrator, s.config.Matching)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Items
		r.Get("/items/count", itemsHandler.Count)
		r.Post("/items", itemsHandler.Create)
		r.Get("/items/{id}", itemsHandler.Get)
		r.Delete("/items/{id}", itemsHandler.Delete)

		// Search
		r.Post("/search", searchHandler.Search)
	})
}
