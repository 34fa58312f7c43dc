package auth

// User-facing messages returned by the auth endpoints.
const (
	MsgRegistered         = "User registered successfully. Please check your inbox to verify your account."
	MsgLoggedIn           = "Login successful"
	MsgLoggedInUnverified = "Login successful - email address not verified."
	MsgAuthenticatedUser  = "Authenticated user"
	MsgLoggedOut          = "Logged out successfully"
	MsgRefreshed          = "Token refreshed successfully"
	MsgMalformedBody      = "The request body could not be parsed."

	MsgInvalidCredentials = "The provided credentials are incorrect."
	MsgEmailTaken         = "The email has already been taken."

	MsgAlreadyVerified  = "Your email address is already verified."
	MsgVerificationSent = "A new verification link has been sent to your email address."
	MsgUserNotFound     = "User not found."
	MsgInvalidLink      = "Invalid verification link."

	MsgProviderUnsupported = "Provider not supported or configuration error."
)
