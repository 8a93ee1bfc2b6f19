package common

// SessionCookieName is the cookie that carries the session token.
const SessionCookieName = "token"

// RequestIDHeaderName is echoed on every HTTP response.
const RequestIDHeaderName = "X-Request-ID"
