package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/bobaboard/bobaserver/internal/domain"
	internal_errors "github.com/bobaboard/bobaserver/internal/errors"
	"github.com/bobaboard/bobaserver/internal/jwt"
	"github.com/bobaboard/bobaserver/internal/logger"
)

// Viewer is the resolved identity making a request. UserId is nil when the
// auth provider knows the identity but no user row exists yet (an invitee
// who has not redeemed an invite).
type Viewer struct {
	ExternalId string
	UserId     *domain.UserId
}

// UserResolver maps an auth-provider identity onto an internal user id.
type UserResolver interface {
	UserIdByExternalId(ctx context.Context, externalId string) (domain.UserId, error)
}

// Key to store the viewer in the request context
type key int

const ViewerKey key = 0

type Auth struct {
	jwtService jwt.JwtService
	users      UserResolver
}

func NewAuth(jwtService jwt.JwtService, users UserResolver) *Auth {
	return &Auth{jwtService: jwtService, users: users}
}

// OptionalViewer populates the viewer context when a valid token is present.
// A missing, malformed or unresolvable token leaves the request anonymous:
// anonymity implies no notification state, never an error.
func (a *Auth) OptionalViewer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := a.extractViewer(r)
			if err != nil || viewer == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ViewerKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireViewer rejects requests without a valid token.
func (a *Auth) RequireViewer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := a.extractViewer(r)
			if err != nil {
				http.Error(w, "Please sign-in", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ViewerKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Auth) extractViewer(r *http.Request) (*Viewer, error) {
	// Cookie first (browser clients), then Authorization header (API clients)
	var tokenString string
	accessCookie, err := r.Cookie("accessToken")
	if err == nil {
		tokenString = accessCookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}

	if tokenString == "" {
		return nil, errNoToken
	}

	token, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errInvalidClaims
	}

	externalId, ok := claims["sub"].(string)
	if !ok || externalId == "" {
		return nil, errInvalidClaims
	}

	viewer := &Viewer{ExternalId: externalId}

	userId, err := a.users.UserIdByExternalId(r.Context(), externalId)
	switch {
	case err == nil:
		viewer.UserId = &userId
	case internal_errors.IsNotFound(err):
		// valid identity, no user row yet
	default:
		logger.Log.Error("failed to resolve viewer", "externalId", externalId, "error", err)
		return nil, err
	}

	return viewer, nil
}

var (
	errNoToken       = errorString("no token")
	errInvalidClaims = errorString("invalid claims")
)

type errorString string

func (e errorString) Error() string { return string(e) }

// GetViewerFromContext retrieves the viewer from the context, nil when the
// request is anonymous.
func GetViewerFromContext(r *http.Request) *Viewer {
	viewer, ok := r.Context().Value(ViewerKey).(*Viewer)
	if !ok {
		return nil
	}
	return viewer
}
