package core

import "context"

type contextKey string

const (
	ctxKeyClientIP  contextKey = "client_ip"
	ctxKeyUserAgent contextKey = "user_agent"
)

// ContextWithClient records the caller's address and user agent so mutation
// logs can name who changed a claim.
func ContextWithClient(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyClientIP, ip)
	return context.WithValue(ctx, ctxKeyUserAgent, userAgent)
}

// ClientFromContext returns the values stored by ContextWithClient.
func ClientFromContext(ctx context.Context) (ip, userAgent string) {
	ip, _ = ctx.Value(ctxKeyClientIP).(string)
	userAgent, _ = ctx.Value(ctxKeyUserAgent).(string)
	return ip, userAgent
}

// clientAttrs returns log attributes for the caller, empty for CLI runs.
func clientAttrs(ctx context.Context) []any {
	ip, ua := ClientFromContext(ctx)
	if ip == "" && ua == "" {
		return nil
	}
	return []any{"ip", ip, "user_agent", ua}
}
