package checker

import (
	"net/http"
	"testing"
)

func TestFindHeader(t *testing.T) {
	headers := Headers{
		{Name: "x-frame-options", Value: "DENY"},
		{Name: "X-Frame-Options", Value: "SAMEORIGIN"},
		{Name: "Server", Value: "nginx"},
	}

	h, ok := FindHeader(headers, "X-FRAME-OPTIONS")
	if !ok {
		t.Fatal("Expected header to be found")
	}
	if h.Name != "x-frame-options" || h.Value != "DENY" {
		t.Errorf("Expected first match with original casing, got %+v", h)
	}

	if _, ok := FindHeader(headers, "Content-Security-Policy"); ok {
		t.Error("Expected missing header not to be found")
	}
	if _, ok := FindHeader(nil, "Server"); ok {
		t.Error("Expected nil headers to find nothing")
	}
	if _, ok := FindHeader(headers, "  "); ok {
		t.Error("Expected blank name to find nothing")
	}
	if got := headers.Get("server"); got != "nginx" {
		t.Errorf("Expected nginx, got %q", got)
	}
}

func TestHeadersFromMap_SortedAndCasePreserving(t *testing.T) {
	headers := HeadersFromMap(map[string]string{
		"x-content-type-options": "nosniff",
		"Content-Security-Policy": "default-src 'self'",
		"Server":                 "Apache",
	})

	want := []string{"Content-Security-Policy", "Server", "x-content-type-options"}
	if len(headers) != len(want) {
		t.Fatalf("Expected %d headers, got %d", len(want), len(headers))
	}
	for i, name := range want {
		if headers[i].Name != name {
			t.Errorf("Expected header %d to be %s, got %s", i, name, headers[i].Name)
		}
	}
}

func TestHeadersFromHTTP_JoinsRepeatedValues(t *testing.T) {
	h := http.Header{}
	h.Add("Permissions-Policy", "geolocation=()")
	h.Add("Permissions-Policy", "camera=()")

	headers := HeadersFromHTTP(h)
	if got := headers.Get("permissions-policy"); got != "geolocation=(), camera=()" {
		t.Errorf("Expected joined value, got %q", got)
	}
}
