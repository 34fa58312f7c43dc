package usercontext

// Locals keys set by the bearer middleware
const (
	KeyUser  = "auth_user"
	KeyToken = "auth_token"
)
