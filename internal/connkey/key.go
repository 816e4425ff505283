// Package connkey derives a destination identity from a request URI,
// used to bucket pooled connections.
package connkey

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Errors returned by FromURL; these are pre-flight failures, no I/O has
// occurred when they're returned.
var (
	ErrUnsupportedScheme = errors.New("connkey: unsupported scheme")
	ErrNoAuthority       = errors.New("connkey: missing authority")
	ErrInvalidDNSName    = errors.New("connkey: invalid dns name")
)

// Key identifies a pooled destination. Equality and hashing consider only
// (Host, Port); ServerName rides along for TLS handshakes but does not
// participate in bucket identity, since a given (host, port) only ever
// negotiates one server name in this design.
type Key struct {
	Host       string
	Port       uint16
	ServerName string
	TLS        bool
}

// Equal reports whether two keys address the same pooled bucket.
func (k Key) Equal(other Key) bool {
	return k.Host == other.Host && k.Port == other.Port
}

// Hash returns a fast, non-cryptographic hash of (Host, Port) suitable
// for map bucketing.
func (k Key) Hash() uint64 {
	var b strings.Builder
	b.Grow(len(k.Host) + 6)
	b.WriteString(k.Host)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(int(k.Port)))
	return xxhash.Sum64String(b.String())
}

func (k Key) String() string {
	return k.Host + ":" + strconv.Itoa(int(k.Port))
}

// FromURL derives a Key from an absolute URL. Scheme must be "http" or
// "https"; default ports are 80/443 respectively. https implies TLS with
// ServerName taken from the URL host (hostname only, port stripped).
func FromURL(u *url.URL) (Key, error) {
	if u.Host == "" {
		return Key{}, ErrNoAuthority
	}

	var defaultPort uint16
	var tls bool
	switch strings.ToLower(u.Scheme) {
	case "http":
		defaultPort, tls = 80, false
	case "https":
		defaultPort, tls = 443, true
	default:
		return Key{}, ErrUnsupportedScheme
	}

	host := u.Hostname()
	if host == "" {
		return Key{}, ErrNoAuthority
	}
	host = strings.ToLower(host)

	port := defaultPort
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Key{}, ErrNoAuthority
		}
		port = uint16(n)
	}

	if tls && !isValidServerName(host) {
		return Key{}, ErrInvalidDNSName
	}

	k := Key{Host: host, Port: port, TLS: tls}
	if tls {
		k.ServerName = host
	}
	return k, nil
}

// isValidServerName accepts 1 to 255 bytes drawn only from lowercase
// ASCII letters, digits, '-', '.' and ':'; label structure is not checked.
func isValidServerName(s string) bool {
	if s == "" || len(s) > 255 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '.', c == ':':
			continue
		default:
			return false
		}
	}
	return true
}
