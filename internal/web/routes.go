package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-recall/internal/constants"
	"github.com/kozaktomas/face-recall/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	peopleHandler := handlers.NewPeopleHandler(s.people, s.config.Web.MaxUploadSize, s.logger)

	s.router.Get("/api/health", handlers.HealthCheck)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/addPerson", peopleHandler.AddPerson)
		r.Get("/getPeople", peopleHandler.GetPeople)
		r.Post("/scan", peopleHandler.Scan)
		r.Put("/updatePerson", peopleHandler.UpdatePerson)
		r.Delete("/deletePerson", peopleHandler.DeletePerson)
	})

	if s.images != nil {
		s.router.Handle(constants.LocalImagesRoute+"/*", http.StripPrefix(constants.LocalImagesRoute, s.images))
	}
}
