package middleware

import (
	"crypto/subtle"
	"log/slog"
	"storefront-service/app/domain"
	"storefront-service/app/handler/api/response"
	"storefront-service/config"
	"storefront-service/pkg"
	"storefront-service/pkg/ctxutil"

	"github.com/gofiber/fiber/v2"
)

type AuthInternalHeader string

const (
	AuthInternalHeaderKey AuthInternalHeader = "X-Internal-Auth"
)

func Auth(secretKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := parseClaims(c, secretKey)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}

		setClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuth identifies the caller when an Authorization header is sent and lets
// anonymous requests through. A header carrying a bad token is still rejected.
func OptionalAuth(secretKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}

		claims, err := parseClaims(c, secretKey)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}

		setClaims(c, claims)
		return c.Next()
	}
}

func setClaims(c *fiber.Ctx, claims pkg.TokenClaims) {
	c.Locals(ctxutil.UserIDKey, claims.UID)
	c.Locals(ctxutil.RoleKey, claims.Role)
	if claims.Email != "" {
		c.Locals(ctxutil.UserEmailKey, claims.Email)
	}
}

// AdminAuth lets through internal callers presenting the shared header and bearer tokens
// carrying the admin role.
func AdminAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if internal := c.Get(string(AuthInternalHeaderKey)); internal != "" {
			if subtle.ConstantTimeCompare([]byte(internal), []byte(cfg.InternalAuthHeader)) != 1 {
				slog.WarnContext(c.Context(), "[middleware] AdminAuth", "internalHeader", "mismatch")
				return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
			}
			c.Locals(ctxutil.RoleKey, ctxutil.RoleAdmin)
			return c.Next()
		}

		claims, err := parseClaims(c, cfg.Jwt.SecretKey)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(response.Error(domain.ErrUnauthorized))
		}
		if claims.Role != ctxutil.RoleAdmin {
			slog.WarnContext(c.Context(), "[middleware] AdminAuth", "role", claims.Role)
			return c.Status(fiber.StatusForbidden).JSON(response.Error(domain.ErrForbidden))
		}

		setClaims(c, claims)
		return c.Next()
	}
}

func parseClaims(c *fiber.Ctx, secretKey string) (pkg.TokenClaims, error) {
	token, err := pkg.GetTokenFromHeaders(c.Get("Authorization"))
	if err != nil {
		slog.ErrorContext(c.Context(), "[middleware] Auth", "GetTokenFromHeaders", err)
		return pkg.TokenClaims{}, err
	}

	claims, err := pkg.ParseJwtToken(token, secretKey)
	if err != nil {
		slog.ErrorContext(c.Context(), "[middleware] Auth", "ParseJwtToken", err)
		return pkg.TokenClaims{}, err
	}

	if claims.UID == "" {
		slog.ErrorContext(c.Context(), "[middleware] Auth", "userID", "empty")
		return pkg.TokenClaims{}, domain.ErrUnauthorized
	}

	return claims, nil
}
