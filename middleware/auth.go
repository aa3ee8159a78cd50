package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/cs2hub/backend/repositories"
)

type contextKey string

const steamIDContextKey contextKey = "steam_id"

const jwtClaimSteamID = "steam_id"

var ErrSteamIDNotInContext = errors.New("steam id not found in request context")

// Authenticator проверяет Bearer-токены и кладёт steam_id в контекст.
type Authenticator struct {
	secret []byte
	users  repositories.UserRepository
	logger *slog.Logger
}

func NewAuthenticator(secret string, users repositories.UserRepository, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		users:  users,
		logger: logger,
	}
}

// Authenticate требует валидный JWT с claim steam_id.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		steamID, err := a.steamIDFromRequest(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), steamIDContextKey, steamID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticate кладёт steam_id в контекст, если запрос пришёл
// с валидным токеном, и пропускает анонимные запросы как есть.
func (a *Authenticator) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if steamID, err := a.steamIDFromRequest(r); err == nil {
			ctx := context.WithValue(r.Context(), steamIDContextKey, steamID)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin пропускает только пользователей с флагом is_admin.
// Должен стоять после Authenticate.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		steamID, err := GetSteamIDFromContext(r.Context())
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		isAdmin, err := a.users.IsAdmin(r.Context(), steamID)
		if err != nil {
			a.logger.Error("failed to check admin flag",
				slog.String("steam_id", steamID), slog.Any("error", err))
			writeAuthError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !isAdmin {
			writeAuthError(w, http.StatusForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) steamIDFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("missing bearer token")
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected token signing method")
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	steamID, ok := claims[jwtClaimSteamID].(string)
	if !ok || steamID == "" {
		return "", errors.New("token has no steam_id claim")
	}
	return steamID, nil
}

// GetSteamIDFromContext извлекает steam_id, положенный Authenticate.
func GetSteamIDFromContext(ctx context.Context) (string, error) {
	steamID, ok := ctx.Value(steamIDContextKey).(string)
	if !ok || steamID == "" {
		return "", ErrSteamIDNotInContext
	}
	return steamID, nil
}

// SteamIDFromContext — необязательный вариант: для анонимных запросов
// возвращает nil.
func SteamIDFromContext(ctx context.Context) *string {
	steamID, err := GetSteamIDFromContext(ctx)
	if err != nil {
		return nil
	}
	return &steamID
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
