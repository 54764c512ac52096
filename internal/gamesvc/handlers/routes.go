package handlers

import (
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/v1", func(r chi.Router) {

		// public routes here
		r.Get("/sessions/{code}", h.GetSessionHandler)
		r.Get("/sessions/{code}/leaderboard", h.LeaderboardHandler)

		// Secure routes, host and admin tooling only
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/health", h.HealthHandler)

			r.Post("/sessions", h.CreateSessionHandler)
			r.Post("/sessions/{code}/start", h.StartSessionHandler)
			r.Post("/sessions/{code}/advance", h.AdvanceSessionHandler)
			r.Post("/sessions/{code}/close-question", h.CloseQuestionHandler)

			r.Get("/questions", h.ListQuestionsHandler)
			r.Get("/questions/{id}", h.GetQuestionHandler)
		})
	})
}

func (h *Handler) InitAuth() {
	var jwtKey = os.Getenv("JWT_SECRET_KEY")
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()

	_, tokenString, _ := h.tokenAuth.Encode(map[string]interface{}{
		"service_id": 8003022,
		"exp":        expirationTime,
	})

	// For debugging only, comment it out in production
	log.Infof("DEBUG: JWT for testing expires soon : %s", tokenString)
}
