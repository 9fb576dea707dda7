package observe

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kartiksrathod/Eduu/internal/apperr"
)

// Middleware records one request sample per handled request. The route label
// is the registered pattern, not the raw path.
func Middleware(m Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = apperr.KindOf(err).Status()
			}
		}

		m.RecordRequest(c.UserContext(), c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
