package todo

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fribble186/todos/internal/model"
)

type Handler struct {
	store  *Store
	logger zerolog.Logger
}

func NewHandler(store *Store, logger zerolog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

type syncResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    []model.Task `json:"data,omitempty"`
}

// writeSync emits the sync response in its wire form: the JSON body is
// string-encoded once more, so clients unwrap an outer JSON string.
func writeSync(w http.ResponseWriter, code int, resp syncResponse) {
	inner, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(string(inner))
}

// POST /api/todo/sync
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeSync(w, http.StatusMethodNotAllowed, syncResponse{Message: "method not allowed"})
		return
	}
	var in struct {
		Data  model.Envelope `json:"data"`
		Email string         `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeSync(w, http.StatusBadRequest, syncResponse{Message: "invalid json"})
		return
	}
	if in.Email == "" {
		writeSync(w, http.StatusOK, syncResponse{Message: "email required"})
		return
	}

	ctx := r.Context()
	if err := h.store.Replace(ctx, in.Email, in.Data.Data); err != nil {
		h.logger.Error().Err(err).Str("email", in.Email).Msg("sync replace failed")
		writeSync(w, http.StatusOK, syncResponse{Message: "could not store collection"})
		return
	}
	stored, err := h.store.Get(ctx, in.Email)
	if err != nil {
		h.logger.Error().Err(err).Str("email", in.Email).Msg("sync read-back failed")
		writeSync(w, http.StatusOK, syncResponse{Message: "could not read collection"})
		return
	}

	h.logger.Debug().Str("email", in.Email).Int("tasks", len(stored)).Msg("collection replaced")
	writeSync(w, http.StatusOK, syncResponse{Success: true, Data: stored})
}
