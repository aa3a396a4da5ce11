package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"leoride/internal/config"
	"leoride/internal/domain"
	"leoride/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

type contextKey string

const principalKey contextKey = "principal"

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
)

// tokenClaims is what the identity provider puts into the JWT. A role
// claim, if present, is ignored: roles live in the users table only.
type tokenClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// HTTPAuth validates bearer tokens and resolves the caller's role. The
// stored role wins over the token claim; a role cache keeps the lookup
// off the hot path.
type HTTPAuth struct {
	cfg       config.APIAuthConfig
	users     domain.UserService
	roleCache domain.RoleCache
	cacheTTL  time.Duration
	logger    *zerolog.Logger
}

func NewHTTPAuth(cfg config.APIAuthConfig, users domain.UserService, roleCache domain.RoleCache, cacheTTL time.Duration, logger *zerolog.Logger) *HTTPAuth {
	if cacheTTL <= 0 {
		cacheTTL = time.Duration(models.DefaultRoleCacheTTL) * time.Second
	}
	return &HTTPAuth{
		cfg:       cfg,
		users:     users,
		roleCache: roleCache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Wrap authenticates every request and stores the principal in context.
func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := a.authenticate(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *HTTPAuth) authenticate(r *http.Request) (*models.Principal, error) {
	raw := bearerToken(r)
	if raw == "" {
		return nil, errMissingToken
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(a.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	if claims.Subject == "" {
		return nil, errInvalidToken
	}

	principal := &models.Principal{
		UserID: claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
	}
	principal.Role = a.resolveRole(r.Context(), principal)

	return principal, nil
}

// resolveRole returns the stored role for the principal, upserting the
// user on a cache miss.
func (a *HTTPAuth) resolveRole(ctx context.Context, principal *models.Principal) string {
	if a.roleCache != nil {
		if role, err := a.roleCache.GetRole(ctx, principal.UserID); err == nil && role != "" {
			return role
		}
	}

	user, err := a.users.EnsureUser(ctx, principal)
	if err != nil {
		a.logger.Error().Err(err).Str("user_id", principal.UserID).Msg("ensure user failed")
		// Fall back to customer rather than failing the request.
		return models.RoleCustomer
	}

	if a.roleCache != nil {
		if err := a.roleCache.SetRole(ctx, principal.UserID, user.Role, a.cacheTTL); err != nil {
			a.logger.Warn().Err(err).Str("user_id", principal.UserID).Msg("role cache set failed")
		}
	}

	return user.Role
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// principalFrom extracts the authenticated principal from the context.
func principalFrom(ctx context.Context) *models.Principal {
	principal, _ := ctx.Value(principalKey).(*models.Principal)
	return principal
}

// requireAdmin guards admin-only handlers.
func requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := principalFrom(r.Context())
		if !principal.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	}
}
