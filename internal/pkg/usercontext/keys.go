package usercontext

// Shared Locals keys used across controllers and middlewares
const (
	KeyContext = "USER_CONTEXT"
	KeyUser    = "user"
	KeyToken   = "access_token"
)
