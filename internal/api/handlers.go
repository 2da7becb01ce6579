package api

import (
	"io/fs"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"gwi.com/prompt-history/internal/auth"
	"gwi.com/prompt-history/internal/core"
	"gwi.com/prompt-history/internal/store"
	"gwi.com/prompt-history/internal/web"
)

type APIHandler struct {
	chatService *core.ChatService
	guard       *auth.Guard
	pages       fs.FS
}

func NewAPIHandler(cs *core.ChatService, guard *auth.Guard, pages fs.FS) *APIHandler {
	return &APIHandler{chatService: cs, guard: guard, pages: pages}
}

// IndexHandler sends logged-in users to the chat page and serves the login
// page to everyone else.
func (h *APIHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if h.guard.Authenticated(r) {
		http.Redirect(w, r, "/"+web.MainPage, http.StatusFound)
		return
	}
	web.ServePage(w, r, h.pages, web.LoginPage)
}

type LoginRequest struct {
	Username string `json:"username" schema:"username"`
	Password string `json:"password" schema:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest[LoginRequest](r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if _, err := h.guard.Authenticate(r.Context(), w, req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			WriteError(w, r, CodedError(http.StatusUnauthorized, "Invalid username or password", err))
			return
		}
		WriteError(w, r, CodedError(http.StatusInternalServerError, "Error logging in", err))
		return
	}

	log.Ctx(r.Context()).Info().Str("username", req.Username).Msg("user logged in")
	http.Redirect(w, r, "/"+web.MainPage, http.StatusFound)
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.guard.Destroy(w, r); err != nil {
		WriteError(w, r, CodedError(http.StatusInternalServerError, "Error logging out", err))
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

type ChatRequest struct {
	Prompt string `json:"prompt" schema:"prompt"`
}

func (h *APIHandler) ChatHandler(r *http.Request) (any, error) {
	req, err := ParseRequest[ChatRequest](r)
	if err != nil {
		return nil, err
	}

	res, err := h.chatService.Chat(r.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, core.ErrUpstream) {
			return nil, CodedError(http.StatusInternalServerError, "Error communicating with the completion API", err)
		}
		return nil, CodedError(http.StatusInternalServerError, "Error saving to database", err)
	}
	return res, nil
}

func (h *APIHandler) ListHistoryHandler(r *http.Request) (any, error) {
	records, err := h.chatService.History(r.Context())
	if err != nil {
		return nil, CodedError(http.StatusInternalServerError, "Error fetching chat history", err)
	}
	return records, nil
}

type DeleteResponse struct {
	Success string `json:"success"`
}

func (h *APIHandler) DeleteHistoryHandler(r *http.Request) (any, error) {
	idParam := chi.URLParam(r, "id")
	// a non-numeric id cannot match any row
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return nil, CodedError(http.StatusNotFound, "Entry not found.", errors.Wrapf(store.ErrNotFound, "id %q", idParam))
	}

	if err := h.chatService.DeleteHistory(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, CodedError(http.StatusNotFound, "Entry not found.", err)
		}
		return nil, CodedError(http.StatusInternalServerError, "Error deleting history entry.", err)
	}
	return DeleteResponse{Success: "Entry deleted successfully."}, nil
}

func (h *APIHandler) HealthHandler(r *http.Request) (any, error) {
	return map[string]string{"status": "ok"}, nil
}
