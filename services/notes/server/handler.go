package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	config "github.com/echonotes/backend/config/notes"
	"github.com/echonotes/backend/pkg/json"
	"github.com/echonotes/backend/pkg/jwt"
	"github.com/echonotes/backend/services/notes/entity"
	"github.com/echonotes/backend/services/notes/usecase"
)

const maxAudioSize = 25 << 20 // provider-side cap on audio uploads

type Handler struct {
	usecase usecase.Usecase
	cfg     *config.Config
	log     *slog.Logger
}

func NewHandler(uc usecase.Usecase, cfg *config.Config, log *slog.Logger) *Handler {
	return &Handler{
		usecase: uc,
		cfg:     cfg,
		log:     log,
	}
}

type processResponse struct {
	Transcription string   `json:"transcription"`
	Summary       string   `json:"summary"`
	KeyPoints     []string `json:"key_points"`
	ActionItems   []string `json:"action_items"`
	AudioURL      string   `json:"audio_url,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type saveNoteRequest struct {
	Transcription string   `json:"transcription"`
	Summary       string   `json:"summary"`
	KeyPoints     []string `json:"key_points"`
	ActionItems   []string `json:"action_items"`
	AudioURL      string   `json:"audio_url,omitempty"`
}

// authenticate resolves the caller's opaque identity from the bearer
// token. Everything behind the API requires it.
func (h *Handler) authenticate(r *http.Request) (string, error) {
	token, err := jwt.ParseTokenFromHeader(r)
	if err != nil {
		return "", err
	}

	return jwt.ParseUserID(r.Context(), token, h.cfg.JWTSecret)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	json.WriteJSON(w, http.StatusOK, map[string]bool{"status": true})
}

func (h *Handler) ProcessAudio(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		h.log.Warn("unauthenticated process request", slog.String("error", err.Error()))
		json.WriteError(w, http.StatusUnauthorized, fmt.Errorf("Unauthorized"))
		return
	}

	if err := r.ParseMultipartForm(maxAudioSize); err != nil {
		h.log.Warn("invalid multipart body", slog.String("error", err.Error()))
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("No audio file provided"))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("No audio file provided"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error("failed to read audio field", slog.String("error", err.Error()))
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("No audio file provided"))
		return
	}

	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = entity.MediaTypeWebM
	}

	h.log.Info("processing audio",
		slog.String("user_id", userID),
		slog.Int("size_bytes", len(data)),
		slog.String("media_type", mediaType))

	note, err := h.usecase.Process(r.Context(), userID, &entity.AudioCapture{
		Data:      data,
		MediaType: mediaType,
	})
	if err != nil {
		h.log.Error("pipeline failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
		json.WriteJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to process audio",
			Details: err.Error(),
		})
		return
	}

	json.WriteJSON(w, http.StatusOK, processResponse{
		Transcription: note.Transcription,
		Summary:       note.Summary,
		KeyPoints:     note.KeyPoints,
		ActionItems:   note.ActionItems,
		AudioURL:      note.AudioURL,
	})
}

func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, fmt.Errorf("Unauthorized"))
		return
	}

	var req saveNoteRequest
	if err := json.ParseJSON(r, &req); err != nil {
		json.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	note, err := h.usecase.Save(r.Context(), userID, &entity.Note{
		Transcription: req.Transcription,
		Summary:       req.Summary,
		KeyPoints:     req.KeyPoints,
		ActionItems:   req.ActionItems,
		AudioURL:      req.AudioURL,
	})
	if err != nil {
		h.writeStoreError(w, userID, err)
		return
	}

	json.WriteJSON(w, http.StatusCreated, note)
}

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, fmt.Errorf("Unauthorized"))
		return
	}

	notes, err := h.usecase.List(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, userID, err)
		return
	}

	json.WriteJSON(w, http.StatusOK, notes)
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, err := h.authenticate(r)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, fmt.Errorf("Unauthorized"))
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.usecase.Delete(r.Context(), userID, id); err != nil {
		h.writeStoreError(w, userID, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeStoreError keeps "set it up" and "it broke" distinguishable for
// the client.
func (h *Handler) writeStoreError(w http.ResponseWriter, userID string, err error) {
	h.log.Error("store operation failed",
		slog.String("user_id", userID),
		slog.String("error", err.Error()))

	if errors.Is(err, entity.ErrNotConfigured) {
		json.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:   "Note store is not configured",
			Details: err.Error(),
		})
		return
	}

	json.WriteJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "Failed to access notes",
		Details: err.Error(),
	})
}
