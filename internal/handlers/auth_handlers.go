package handlers

import (
	"net/http"

	"taskapi/internal/handlers/dto"
	"taskapi/internal/logger"
	"taskapi/internal/service"

	"go.uber.org/zap"
)

type AuthHandler struct {
	AuthService AuthService
}

func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		AuthService: authService,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var request dto.RegisterRequest
	if err := decodeJSONBody(w, r, &request); err != nil {
		handleError(w, r, err, "register")
		return
	}

	created, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		Username:    request.Username,
		Password:    request.Password,
		Email:       request.Email,
		IsStaff:     request.IsStaff,
		IsSuperuser: request.IsSuperuser,
	})
	if err != nil {
		handleError(w, r, err, "register")
		return
	}

	logger.Info("HTTP_OUT: Пользователь зарегистрирован",
		zap.String("username", created.Username),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("message", "User registered successfully"))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request dto.LoginRequest
	if err := decodeJSONBody(w, r, &request); err != nil {
		handleError(w, r, err, "login")
		return
	}

	pair, err := h.AuthService.Login(r.Context(), request.Username, request.Password)
	if err != nil {
		handleError(w, r, err, "login")
		return
	}

	responseWithBody(w, http.StatusOK, pair)
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var request dto.RefreshRequest
	if err := decodeJSONBody(w, r, &request); err != nil {
		handleError(w, r, err, "token_refresh")
		return
	}

	access, err := h.AuthService.RefreshToken(r.Context(), request.Refresh)
	if err != nil {
		handleError(w, r, err, "token_refresh")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("access", access))
}
