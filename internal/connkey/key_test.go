package connkey

import (
	"errors"
	"net/url"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestFromURLDefaults(t *testing.T) {
	tests := []struct {
		raw        string
		host       string
		port       uint16
		tls        bool
		serverName string
	}{
		{"http://example.com/x", "example.com", 80, false, ""},
		{"https://example.com/x", "example.com", 443, true, "example.com"},
		{"http://example.com:8080/", "example.com", 8080, false, ""},
		{"https://api.test:8443/v1", "api.test", 8443, true, "api.test"},
		{"http://EXAMPLE.com/", "example.com", 80, false, ""},
	}
	for _, tt := range tests {
		k, err := FromURL(mustParse(t, tt.raw))
		if err != nil {
			t.Fatalf("FromURL(%q): %v", tt.raw, err)
		}
		if k.Host != tt.host || k.Port != tt.port || k.TLS != tt.tls || k.ServerName != tt.serverName {
			t.Fatalf("FromURL(%q) = %+v", tt.raw, k)
		}
	}
}

func TestFromURLErrors(t *testing.T) {
	tests := []struct {
		raw  string
		want error
	}{
		{"ftp://example.com/", ErrUnsupportedScheme},
		{"ws://example.com/", ErrUnsupportedScheme},
		{"http:///no-host", ErrNoAuthority},
	}
	for _, tt := range tests {
		if _, err := FromURL(mustParse(t, tt.raw)); !errors.Is(err, tt.want) {
			t.Fatalf("FromURL(%q) err = %v, want %v", tt.raw, err, tt.want)
		}
	}
}

func TestKeyEqualityIgnoresServerName(t *testing.T) {
	a := Key{Host: "example.com", Port: 443, ServerName: "example.com", TLS: true}
	b := Key{Host: "example.com", Port: 443}
	if !a.Equal(b) {
		t.Fatal("keys with the same (host, port) must be equal regardless of server name")
	}
	if a.Hash() != b.Hash() {
		t.Fatal("equal keys must hash identically")
	}

	c := Key{Host: "example.com", Port: 8443}
	if a.Equal(c) {
		t.Fatal("different ports must not be equal")
	}
}
