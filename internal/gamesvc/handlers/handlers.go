package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"

	"github.com/avvvet/trivia-services/internal/gamesvc/service"
	"github.com/avvvet/trivia-services/internal/gamesvc/session"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth

	sessionService  *service.SessionService
	answerService   *service.AnswerService
	questionService *service.QuestionService
}

func NewHandler(sessionService *service.SessionService,
	answerService *service.AnswerService, questionService *service.QuestionService) *Handler {
	return &Handler{
		sessionService:  sessionService,
		answerService:   answerService,
		questionService: questionService,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

// errorResponse maps the service failure onto an HTTP status.
func (h *Handler) errorResponse(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState):
		code = http.StatusUnprocessableEntity
	}
	h.CreateResponse(w, Response{Code: code, Error: err.Error()})
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "game service is running at port " + os.Getenv("GAME_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	json.NewEncoder(w).Encode(rsp)
}

// CreateSessionHandler opens a new session under a fresh code. Resetting a
// finished game is the same operation: the old code stays terminal.
func (h *Handler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionService.Create(r.Context())
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusCreated, Data: sess})
}

func (h *Handler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	snap, err := h.sessionService.Snapshot(r.Context(), code)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: snap})
}

func (h *Handler) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	sess, err := h.sessionService.Start(r.Context(), code)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: sess})
}

// AdvanceSessionHandler is the host's manual advance. A concurrent caller
// racing the same step is not an error: the step happened, so the loser
// gets the session as it now stands.
func (h *Handler) AdvanceSessionHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	sess, err := h.sessionService.Advance(r.Context(), code, session.TriggerHostAdvance)
	if errors.Is(err, service.ErrConflict) {
		sess, err = h.sessionService.Get(r.Context(), code)
	}
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: sess})
}

// CloseQuestionHandler force-closes the current question: score everything,
// recompute totals, move to the reveal.
func (h *Handler) CloseQuestionHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	sess, err := h.answerService.CloseOutQuestion(r.Context(), code)
	if errors.Is(err, service.ErrConflict) {
		sess, err = h.sessionService.Get(r.Context(), code)
	}
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: sess})
}

func (h *Handler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	scores, err := h.sessionService.Leaderboard(r.Context(), code)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: scores})
}

func (h *Handler) ListQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questionService.List(r.Context())
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: questions})
}

func (h *Handler) GetQuestionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid question id"})
		return
	}

	q, err := h.questionService.GetByID(r.Context(), id)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: q})
}
