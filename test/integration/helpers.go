package integration

import (
	"net"
	"strings"
	"testing"
)

func splitHostPort(t *testing.T, serverURL string) (string, int) {
	t.Helper()

	addr := strings.TrimPrefix(serverURL, "http://")
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("Failed to split host and port: %v", err)
	}

	port, err := net.LookupPort("tcp", portStr)
	if err != nil {
		t.Fatalf("Failed to parse port: %v", err)
	}

	return host, port
}
