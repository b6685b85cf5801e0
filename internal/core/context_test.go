package core

import (
	"context"
	"testing"
)

func TestClientContext(t *testing.T) {
	ctx := context.Background()
	if GetIPAddressFromContext(ctx) != "" || GetUserAgentFromContext(ctx) != "" {
		t.Error("empty context should yield empty values")
	}

	ctx = ContextWithClient(ctx, "198.51.100.7", "curl/8.0")
	if got := GetIPAddressFromContext(ctx); got != "198.51.100.7" {
		t.Errorf("IP = %q", got)
	}
	if got := GetUserAgentFromContext(ctx); got != "curl/8.0" {
		t.Errorf("User-Agent = %q", got)
	}
}
