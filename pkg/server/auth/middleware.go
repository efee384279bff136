package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/mpapenbr/ledtrack-go/log"
)

const (
	tokenHeader = "api-token"
)

type (
	authMiddleware struct {
		adminToken    string
		operatorToken string
		authProvider  []AuthenticationProvider
		l             *log.Logger
	}
	Option func(*authMiddleware)
)

// NewMiddleware resolves the api-token header into an Authentication
// stored in the request context. Requests without a usable token pass
// through as anonymous.
func NewMiddleware(opts ...Option) func(http.Handler) http.Handler {
	ret := &authMiddleware{
		l: log.Default().Named("server.auth"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.authProvider = []AuthenticationProvider{
		&apiKeyAuthenticator{
			adminToken:    ret.adminToken,
			operatorToken: ret.operatorToken,
		},
		&anonymousAuthenticator{},
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ret.handleAuth(r.Context(), r.Header)))
		})
	}
}

func WithAdminToken(token string) Option {
	return func(m *authMiddleware) {
		m.adminToken = token
	}
}

func WithOperatorToken(token string) Option {
	return func(m *authMiddleware) {
		m.operatorToken = token
	}
}

//nolint:lll // better readability
func (m *authMiddleware) handleAuth(ctx context.Context, h http.Header) context.Context {
	for _, p := range m.authProvider {
		a, err := p.Authenticate(ctx, h)
		if a != nil {
			return AddAuthToContext(ctx, a)
		}
		if err != nil {
			m.l.Error("error authenticating", log.ErrorField(err))
		}
	}
	// if no auth found, continue with current context
	return ctx
}

type (
	anonymousAuthenticator struct{}
	apiKeyAuthenticator    struct {
		adminToken    string
		operatorToken string
	}
)

//nolint:whitespace // editor/linter issue
func (a *anonymousAuthenticator) Authenticate(
	ctx context.Context,
	h http.Header,
) (Authentication, error) {
	return anon, nil
}

//nolint:whitespace // editor/linter issue
func (a *apiKeyAuthenticator) Authenticate(
	ctx context.Context,
	h http.Header,
) (Authentication, error) {
	token := h.Get(tokenHeader)
	if token == "" {
		return nil, nil
	}
	if a.adminToken != "" && token == a.adminToken {
		return &SimpleAuth{
			principal: &SimplePrincipal{name: "admin"},
			roles:     []Role{RoleAdmin},
		}, nil
	}
	if a.operatorToken != "" && token == a.operatorToken {
		return &SimpleAuth{
			principal: &SimplePrincipal{name: "operator"},
			roles:     []Role{RoleOperator},
		}, nil
	}
	return nil, errors.New("unknown api token")
}
