package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/kartiksrathod/Eduu/internal/apperr"
	"github.com/kartiksrathod/Eduu/internal/models"
	"github.com/kartiksrathod/Eduu/internal/repository"
)

const localsUser = "user"

// RequireAdmin must run after Authenticate. It reloads the principal on every
// request and trusts only the stored admin flag, never the token claim.
func (g *Gate) RequireAdmin(c *fiber.Ctx) error {
	email := Subject(c)
	if email == "" {
		return apperr.Unauthenticated("Missing authentication token")
	}

	user, err := g.users.FindByEmail(c.UserContext(), email)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Unauthenticated("User no longer exists")
	}
	if err != nil {
		return apperr.Internal("Failed to load user", err)
	}

	if !user.Admin() {
		return apperr.Forbidden("Admin access required")
	}

	c.Locals(localsUser, user)
	return c.Next()
}

// CurrentUser returns the principal loaded by RequireAdmin, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localsUser).(*models.User)
	return user
}
