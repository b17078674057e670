package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Rrens/chatdesk/internal/api/middleware"
	"github.com/Rrens/chatdesk/internal/api/response"
	"github.com/Rrens/chatdesk/internal/domain"
	"github.com/Rrens/chatdesk/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ChatHandler handles chat session endpoints
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// identify extracts the caller and the {chatID} path parameter
func identify(w http.ResponseWriter, r *http.Request) (chatID, userID uuid.UUID, ok bool) {
	userID, ok = middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		response.BadRequest(w, "invalid chat ID")
		return uuid.Nil, uuid.Nil, false
	}

	return chatID, userID, true
}

// Create creates an empty chat
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	// Body is optional
	var input domain.SessionCreate
	if err := decodeOptional(r, &input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if !validateStruct(w, input) {
		return
	}

	session, err := h.chatService.CreateSession(r.Context(), userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Message(w, http.StatusCreated, "chat created", session)
}

// List returns the caller's chats, newest first, without messages
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	sessions, err := h.chatService.ListSessions(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, sessions)
}

// Get returns one chat with its messages
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	chatID, userID, ok := identify(w, r)
	if !ok {
		return
	}

	session, err := h.chatService.GetSession(r.Context(), chatID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, session)
}

// UpdateTitle renames a chat
func (h *ChatHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	chatID, userID, ok := identify(w, r)
	if !ok {
		return
	}

	var input domain.TitleUpdate
	if !decodeAndValidate(w, r, &input) || !requireText(w, "title", input.Title) {
		return
	}

	session, err := h.chatService.UpdateTitle(r.Context(), chatID, userID, input.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Message(w, http.StatusOK, "title updated", session)
}

// Delete removes a chat
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	chatID, userID, ok := identify(w, r)
	if !ok {
		return
	}

	if err := h.chatService.DeleteSession(r.Context(), chatID, userID); err != nil {
		writeError(w, r, err)
		return
	}

	response.Message(w, http.StatusOK, "chat deleted", nil)
}

// AddMessage appends a message without asking the assistant
func (h *ChatHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	chatID, userID, ok := identify(w, r)
	if !ok {
		return
	}

	var input domain.MessageCreate
	if !decodeAndValidate(w, r, &input) || !requireText(w, "content", input.Content) {
		return
	}

	session, err := h.chatService.AddMessage(r.Context(), chatID, userID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, session)
}

// Send records a user message and the assistant's reply
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	chatID, userID, ok := identify(w, r)
	if !ok {
		return
	}

	var input domain.SendRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}
	if !requireText(w, "message", input.Message) {
		return
	}

	exchange, err := h.chatService.SendMessage(r.Context(), chatID, userID, input.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, exchange)
}

// SuggestTitle retitles a chat from its first user message
func (h *ChatHandler) SuggestTitle(w http.ResponseWriter, r *http.Request) {
	chatID, userID, ok := identify(w, r)
	if !ok {
		return
	}

	session, err := h.chatService.SuggestTitle(r.Context(), chatID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Message(w, http.StatusOK, "title updated", session)
}

func decodeOptional(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
