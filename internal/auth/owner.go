package auth

import (
	"github.com/kartiksrathod/Eduu/internal/apperr"
)

// CheckOwner fails with Forbidden unless principal owns the record.
func CheckOwner(owner, principal, msg string) error {
	if owner == "" || owner != principal {
		return apperr.Forbidden(msg)
	}
	return nil
}
