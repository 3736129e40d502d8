package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

type Handler struct {
	service *Service
	logger  zerolog.Logger
}

func NewHandler(service *Service, logger zerolog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeReject reports a domain rejection. The transport succeeds; the
// body carries success=false plus a message the client surfaces as-is.
func writeReject(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, apiResponse{Success: false, Message: msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

// POST /api/verify/sendVerify
func (h *Handler) SendVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Message: "method not allowed"})
		return
	}
	var in struct {
		Data struct {
			Email string `json:"email"`
		} `json:"data"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid json"})
		return
	}

	if err := h.service.SendVerify(in.Data.Email); err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrResendCooldown):
			writeReject(w, err.Error())
		default:
			h.logger.Error().Err(err).Msg("sendVerify failed")
			writeReject(w, "could not send verification code")
		}
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true})
}

// POST /api/user/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiResponse{Success: false, Message: "method not allowed"})
		return
	}
	var in struct {
		Data struct {
			Email string `json:"email"`
			Code  string `json:"code"`
		} `json:"data"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid json"})
		return
	}

	if _, err := h.service.Login(in.Data.Email, in.Data.Code); err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmail),
			errors.Is(err, ErrInvalidCodeFormat),
			errors.Is(err, ErrInvalidCode),
			errors.Is(err, ErrCodeExpired),
			errors.Is(err, ErrTooManyAttempts):
			writeReject(w, err.Error())
		default:
			h.logger.Error().Err(err).Msg("login failed")
			writeReject(w, "could not log in")
		}
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true})
}
