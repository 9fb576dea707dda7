package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kartiksrathod/Eduu/internal/apperr"
	"github.com/kartiksrathod/Eduu/internal/auth"
	"github.com/kartiksrathod/Eduu/internal/repository"
)

// TokenCookie is the cookie checked when no Authorization header is sent.
const TokenCookie = "token"

const (
	localsEmail  = "user_email"
	localsClaims = "claims"
)

// Gate authenticates callers and enforces the admin role.
type Gate struct {
	tokens *auth.TokenService
	users  repository.UserStore
}

func NewGate(tokens *auth.TokenService, users repository.UserStore) *Gate {
	return &Gate{tokens: tokens, users: users}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	return c.Cookies(TokenCookie)
}

// Authenticate validates the bearer token (header first, then the token
// cookie) and stores the caller identity for later handlers.
func (g *Gate) Authenticate(c *fiber.Ctx) error {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return apperr.Unauthenticated("Missing authentication token")
	}

	claims, err := g.tokens.Verify(tokenString)
	if err != nil || claims.Purpose != auth.PurposeAccess {
		return apperr.Unauthenticated("Invalid or expired token")
	}

	// Store user info in context for next handlers
	c.Locals(localsEmail, claims.Subject)
	c.Locals(localsClaims, claims)

	return c.Next()
}

// Subject returns the authenticated principal email, or "".
func Subject(c *fiber.Ctx) string {
	email, _ := c.Locals(localsEmail).(string)
	return email
}

// Claims returns the verified token claims, or nil.
func Claims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(localsClaims).(*auth.Claims)
	return claims
}
