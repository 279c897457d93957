package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"readwatch/internal/httputil"
	"readwatch/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey contextKey = "user_id"
)

// authError is a rejected token, carrying the code and message for the 401.
type authError struct {
	code    string
	message string
}

var errMissingToken = &authError{code: httputil.ErrCodeUnauthorized, message: "Missing authentication token"}

// tokenFromRequest checks the Authorization header first, then the access_token cookie.
func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// verify validates an HS256 token and returns its numeric user_id claim.
func verify(tokenString, jwtSecret string) (int64, *authError) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, &authError{code: model.CodeTokenExpired, message: "Access token has expired"}
		}
		return 0, &authError{code: model.CodeTokenInvalid, message: "Invalid authentication token"}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, &authError{code: model.CodeTokenInvalid, message: "Invalid authentication token"}
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, &authError{code: model.CodeTokenInvalid, message: "Invalid token claims"}
	}
	return int64(userIDFloat), nil
}

// AuthMiddleware rejects requests without a valid token.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				httputil.WriteUnauthorized(w, errMissingToken.message)
				return
			}

			userID, aerr := verify(tokenString, jwtSecret)
			if aerr != nil {
				httputil.WriteUnauthorizedWithCode(w, aerr.code, aerr.message)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuthMiddleware attaches the user id when a token is present. An
// absent token passes through anonymously; a present but bad token is still
// rejected so clients notice expiry.
func OptionalAuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, aerr := verify(tokenString, jwtSecret)
			if aerr != nil {
				httputil.WriteUnauthorizedWithCode(w, aerr.code, aerr.message)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserIDFromContext extracts the user ID from the request context
// Returns the user ID and true if found, or 0 and false if not found
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}
