package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
)

type Claims struct {
	jwt.RegisteredClaims
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// SigningKey selects HMAC verification instead of JWKS. Meant for
	// single-node installs and tests.
	SigningKey []byte
	// AllowAnonymous lets requests without an Authorization header through
	// unauthenticated. A header that is present must still be valid.
	AllowAnonymous bool
}

// Verifier checks bearer tokens against an HMAC key or a JWKS endpoint.
type Verifier struct {
	cfg     JWTConfig
	jwks    *JWKSCache
	methods []string
}

// NewVerifier resolves the key source once. Without an explicit JWKS URL or
// signing key, the JWKS location is discovered from the issuer.
func NewVerifier(ctx context.Context, cfg JWTConfig) (*Verifier, error) {
	if len(cfg.SigningKey) > 0 {
		return &Verifier{cfg: cfg, methods: []string{"HS256", "HS384", "HS512"}}, nil
	}
	jwksURL := cfg.JWKSURL
	if jwksURL == "" && cfg.Issuer != "" {
		provider, err := DiscoverOIDC(ctx, cfg.Issuer)
		if err != nil {
			return nil, err
		}
		jwksURL = provider.JWKSURI
	}
	if jwksURL == "" {
		return nil, fmt.Errorf("jwt auth needs a signing key, a JWKS URL or an issuer")
	}
	return &Verifier{
		cfg:     cfg,
		jwks:    NewJWKSCache(jwksURL, defaultJWKSCacheTTL),
		methods: []string{"RS256"},
	}, nil
}

func (v *Verifier) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods(v.methods)}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	keyFunc := func(*jwt.Token) (interface{}, error) { return v.cfg.SigningKey, nil }
	if v.jwks != nil {
		keyFunc = v.jwks.keyFunc(ctx)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, keyFunc, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

func bearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// JWTMiddleware authenticates the bearer token and stores the subject and
// roles on the request context.
func JWTMiddleware(v *Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				if v.cfg.AllowAnonymous {
					return next(c)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			tokenStr, err := bearerToken(authHeader)
			if err != nil {
				return err
			}
			claims, err := v.Verify(c.Request().Context(), tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := WithUserID(c.Request().Context(), claims.Subject)
			ctx = context.WithValue(ctx, UserRolesKey, claims.Roles)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// LocalMiddleware attributes every request to one fixed user. It serves
// single-user installs where no identity provider exists.
func LocalMiddleware(user string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserIDFromContext(c.Request().Context()) == "" {
				c.SetRequest(c.Request().WithContext(WithUserID(c.Request().Context(), user)))
			}
			return next(c)
		}
	}
}

// RequireUser rejects requests that reached it without an authenticated user.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserIDFromContext(c.Request().Context()) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}

func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, UserIDKey, uid)
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}
