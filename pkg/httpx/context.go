package httpx

import (
	"context"

	"github.com/aussiebroadwan/schoolauth/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyPrincipal ctxKey = "principal"
	CtxKeyToken     ctxKey = "token"
)

// WithPrincipal attaches the authenticated principal and the raw bearer
// token it came from.
func WithPrincipal(ctx context.Context, p jwtx.Principal, token string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyPrincipal, p)
	ctx = context.WithValue(ctx, CtxKeyToken, token)
	return ctx
}

func PrincipalFromContext(ctx context.Context) (jwtx.Principal, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(jwtx.Principal)
	return p, ok
}

func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(CtxKeyToken).(string)
	return t, ok && t != ""
}
