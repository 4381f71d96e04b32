// Package auth correlates browser requests with server-side sessions.
// The session id travels inside a signed JWT carried by a cookie or the
// Authorization header; the session contents never leave the server.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/authgate/internal/logger"
)

type sessionsKeeper interface {
	Create() string
	Exists(sessionID string) bool
}

// Auth issues and validates the signed session cookie.
type Auth struct {
	// sessions is the server-side session store.
	sessions sessionsKeeper

	// authCookieName is the name of the cookie used to store the JWT.
	authCookieName string

	// authCookieSigningSecretKey is the key used to sign JWTs.
	authCookieSigningSecretKey []byte
}

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and adds the server-side session identifier.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// SessionIDKey is the context key used to store and retrieve the current session id.
const SessionIDKey ContextKey = "sessionID"

// New creates a new Auth handler with the given session store,
// cookie name, and JWT signing secret.
func New(
	sessions sessionsKeeper,
	authCookieName string,
	authCookieSigningSecretKey []byte,
) *Auth {
	return &Auth{
		sessions:                   sessions,
		authCookieName:             authCookieName,
		authCookieSigningSecretKey: authCookieSigningSecretKey,
	}
}

// WithSession is an HTTP middleware that resolves the request's session.
// A valid cookie maps to an existing session; anything else (no cookie, bad
// signature, unknown session id) yields a fresh anonymous session whose
// signed id is set as a cookie and Authorization header. The session id is
// stored in the request context under SessionIDKey.
func (a *Auth) WithSession(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		sessionID, err := a.getSessionIDFromAuthorizationHeaderOrCookie(request)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.getSessionIDFromAuthorizationHeaderOrCookie()`: ", zap.Error(err))
			response.WriteHeader(http.StatusInternalServerError)
			return
		}

		if sessionID == "" || !a.sessions.Exists(sessionID) {
			sessionID = a.sessions.Create()

			JWTString, err := a.BuildJWTString(&Claims{SessionID: sessionID})
			if err != nil {
				logger.Log.Debugln("Error calling the `a.BuildJWTString()`: ", zap.Error(err))
				response.WriteHeader(http.StatusInternalServerError)
				return
			}

			response.Header().Set("Authorization", JWTString)

			http.SetCookie(
				response,
				&http.Cookie{
					Name:     a.authCookieName,
					Value:    JWTString,
					Path:     "/",
					HttpOnly: true,
				},
			)
		}

		ctx := context.WithValue(request.Context(), SessionIDKey, sessionID)
		requestWithCtx := request.WithContext(ctx)
		h.ServeHTTP(response, requestWithCtx)
	}

	return http.HandlerFunc(middleware)
}

func (a *Auth) getTokenStringFromAuthorizationHeaderOrCookie(request *http.Request) string {
	tokenString := request.Header.Get("Authorization")
	if tokenString != "" {
		return tokenString
	}
	cookie, err := request.Cookie(a.authCookieName)
	if err == nil {
		tokenString = cookie.Value
	}

	return tokenString
}

func (a *Auth) getSessionIDFromAuthorizationHeaderOrCookie(request *http.Request) (string, error) {
	return a.GetSessionIDFromToken(a.getTokenStringFromAuthorizationHeaderOrCookie(request))
}

// GetSessionIDFromToken extracts the session id from a signed JWT string.
// An unparsable or badly signed token yields an empty session id, not an
// error, so the caller falls back to issuing a fresh session.
func (a *Auth) GetSessionIDFromToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.authCookieSigningSecretKey, nil
		},
	)
	if err != nil || !token.Valid {
		return "", nil
	}

	return claims.SessionID, nil
}

// BuildJWTString signs the given claims with the configured secret.
func (a *Auth) BuildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.authCookieSigningSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
