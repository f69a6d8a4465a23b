// Package ctxkeys defines typed context keys shared between middleware and handlers.
// Both middleware and handlers import this package, but neither imports the other.
package ctxkeys

import "context"

// Key is a typed string used as context key to prevent collisions.
type Key string

const (
	UserID   Key = "userID"
	UserRole Key = "userRole"
)

// GetUserID returns the authenticated user's ID, or "" outside an
// authenticated request.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(UserID).(string)
	return id
}

// GetUserRole returns the authenticated user's role, or "".
func GetUserRole(ctx context.Context) string {
	role, _ := ctx.Value(UserRole).(string)
	return role
}

// RoleLevel maps role names to permission levels.
var RoleLevel = map[string]int{
	"viewer": 1,
	"admin":  2,
}
