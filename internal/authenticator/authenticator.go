package authenticator

import "net/http"

type Authenticator interface {
	WithSession(h http.Handler) http.Handler
}
