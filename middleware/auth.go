// middleware/auth.go
package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"lifequest/token"
)

// Auth validates the bearer access token and stores the numeric user ID in
// the request Locals. The token manager is injected; the middleware never
// touches the environment.
func Auth(tokens *token.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"success": false, "error": "Missing authorization header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid authorization header format"})
		}

		subject, err := tokens.Verify(token.KindAccess, parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid or expired token"})
		}

		// Access tokens are signed with the numeric user ID as subject.
		id, err := strconv.ParseUint(subject, 10, 64)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid token claims"})
		}

		c.Locals("userId", uint(id))
		return c.Next()
	}
}

// GetUserID returns the authenticated user's ID set by Auth.
func GetUserID(c *fiber.Ctx) (uint, error) {
	userID := c.Locals("userId")
	if userID == nil {
		return 0, fiber.NewError(401, "User not authenticated")
	}

	if id, ok := userID.(uint); ok {
		return id, nil
	}

	return 0, fiber.NewError(401, "Invalid user ID format")
}
