package transport

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, apiKey string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
}

// BasicAuth implements HTTP Basic authentication. The key is either an
// already encoded token or a "user:secret" pair, which is encoded here.
type BasicAuth struct{}

// Apply implements the Authenticator interface for BasicAuth.
func (a *BasicAuth) Apply(req *http.Request, apiKey string) {
	token := apiKey
	if strings.Contains(apiKey, ":") {
		token = base64.StdEncoding.EncodeToString([]byte(apiKey))
	}
	req.Header.Set("Authorization", "Basic "+token)
}

// HeaderAuth implements custom header authentication.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, apiKey string) {
	req.Header.Set(a.Header, apiKey)
}

// QueryAuth implements API key as query parameter authentication.
type QueryAuth struct {
	Param string
}

// Apply implements the Authenticator interface for QueryAuth.
func (a *QueryAuth) Apply(req *http.Request, apiKey string) {
	if req.URL == nil {
		return
	}
	query := req.URL.Query()
	query.Set(a.Param, apiKey)
	req.URL.RawQuery = query.Encode()
}

// ParseAuth maps a scheme name to an Authenticator. Unknown and empty
// names yield NoAuth.
func ParseAuth(scheme string) Authenticator {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "bearer":
		return &BearerAuth{}
	case "basic":
		return &BasicAuth{}
	default:
		if header, ok := strings.CutPrefix(scheme, "header:"); ok && header != "" {
			return &HeaderAuth{Header: header}
		}
		if param, ok := strings.CutPrefix(scheme, "query:"); ok && param != "" {
			return &QueryAuth{Param: param}
		}
		return &NoAuth{}
	}
}
