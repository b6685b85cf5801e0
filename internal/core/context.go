package core

import "context"

type contextKey string

const (
	ctxKeyClientIP  contextKey = "client_ip"
	ctxKeyUserAgent contextKey = "user_agent"
)

// ContextWithIPAddress attaches the client IP recorded in upload history.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

// ContextWithUserAgent attaches the client User-Agent recorded in upload history.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// ContextWithClient attaches both the client IP and User-Agent.
func ContextWithClient(ctx context.Context, ip, ua string) context.Context {
	return ContextWithUserAgent(ContextWithIPAddress(ctx, ip), ua)
}

// GetIPAddressFromContext returns the client IP, or "" if unset.
func GetIPAddressFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ctxKeyClientIP).(string)
	return ip
}

// GetUserAgentFromContext returns the client User-Agent, or "" if unset.
func GetUserAgentFromContext(ctx context.Context) string {
	ua, _ := ctx.Value(ctxKeyUserAgent).(string)
	return ua
}
