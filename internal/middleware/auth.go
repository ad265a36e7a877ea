package middleware

import (
	"context"
	"net/http"
	"strings"

	"taskapi/internal/logger"
	"taskapi/internal/models/user"

	"go.uber.org/zap"
)

const IdentityKey contextKey = "identity"

type TokenVerifier interface {
	Verify(access string) (user.Identity, error)
}

// Authenticate кладёт в контекст личность из заголовка Authorization: Bearer.
// Отсутствующий или невалидный токен запрос не обрывает: решение
// о доступе принимает сервис.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				logger.Info("HTTP_IN: Токен отклонён",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, &identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetIdentity(ctx context.Context) *user.Identity {
	if identity, ok := ctx.Value(IdentityKey).(*user.Identity); ok {
		return identity
	}
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
