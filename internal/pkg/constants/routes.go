package constants

// Web route constants
const (
	RouteHome         = "/"
	RouteLogin        = "/login"
	RouteRegister     = "/register"
	RouteLogout       = "/logout"
	RouteVerifyNotice = "/email/verify"
	RouteResend       = "/email/resend"
	RouteChirps       = "/chirps"
)
