package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// RouterRootPath is the root path inside a route group.
	RouterRootPath = ""

	// APIPath is the prefix for the JSON API.
	APIPath = "/api"

	// SessionCookieName is the cookie carrying the session ID.
	SessionCookieName = "session"

	// LocalsUserKey is the fiber.Locals key the auth middleware stores the
	// resolved user context under.
	LocalsUserKey = "user_context"
)
