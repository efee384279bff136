package auth

import (
	"context"
	"errors"
	"net/http"
)

// Role names are part of the policy input, keep them in sync with the
// role_permissions table in permission/data.json.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

var ErrPermissionDenied = errors.New("permission denied")

type Principal interface {
	Name() string
}

type Authentication interface {
	Principal() Principal
	Roles() []Role
}

type AuthenticationProvider interface {
	Authenticate(ctx context.Context, h http.Header) (Authentication, error)
}

type AuthHolder struct {
	auth Authentication
}

type SimpleAuth struct {
	Authentication
	principal Principal
	roles     []Role
}
type SimplePrincipal struct {
	Principal
	name string
}

func (s *SimplePrincipal) Name() string {
	return s.name
}

func (s *SimpleAuth) Principal() Principal {
	return s.principal
}

func (s *SimpleAuth) Roles() []Role {
	return s.roles
}

func NewSimplePrincipal(name string) *SimplePrincipal {
	return &SimplePrincipal{name: name}
}

var anon = &SimpleAuth{principal: &SimplePrincipal{name: "anon"}, roles: []Role{}}

type myCtxTypeKey int

func AddAuthToContext(ctx context.Context, a Authentication) context.Context {
	return context.WithValue(ctx, myCtxTypeKey(0), &AuthHolder{auth: a})
}

func FromContext(ctx *context.Context) Authentication {
	if ctx == nil {
		return nil
	}
	if val, ok := (*ctx).Value(myCtxTypeKey(0)).(*AuthHolder); ok {
		return val.auth
	}
	return nil
}
