package requestmeta

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newRequest(headers map[string]string, cookies map[string]string) *Request {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &Request{
		Headers:    h,
		Cookies:    cookies,
		RemoteAddr: "203.0.113.7:51234",
		Method:     "POST",
		Path:       "/api/v1/votes",
	}
}

func TestExtractTokenPrecedence(t *testing.T) {
	req := newRequest(map[string]string{"Authorization": "Bearer header-token"},
		map[string]string{AccessTokenCookie: "cookie-token"})
	ctx := Extract(req, "fallback-token")
	assert.Equal(t, "header-token", ctx.Token)

	req = newRequest(nil, map[string]string{AccessTokenCookie: "cookie-token"})
	ctx = Extract(req, "fallback-token")
	assert.Equal(t, "cookie-token", ctx.Token)

	req = newRequest(nil, nil)
	ctx = Extract(req, "fallback-token")
	assert.Equal(t, "fallback-token", ctx.Token)

	ctx = Extract(req, "")
	assert.Equal(t, "", ctx.Token)
}

func TestExtractMalformedAuthorizationHeader(t *testing.T) {
	req := newRequest(map[string]string{"Authorization": "Basic abc123"}, nil)
	ctx := Extract(req, "")
	assert.Equal(t, "", ctx.Token)
}

func TestExtractNilRequest(t *testing.T) {
	ctx := Extract(nil, "session-1")
	assert.Equal(t, "session-1", ctx.Token)
	assert.Equal(t, "", ctx.IPAddress)
	assert.Equal(t, "", ctx.UserAgent)
	assert.Equal(t, "", ctx.Method)
	assert.Equal(t, "", ctx.Path)
}

func TestClientIPResolution(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{"forwarded for single", map[string]string{"X-Forwarded-For": "198.51.100.3"}, "198.51.100.3"},
		{"forwarded for chain", map[string]string{"X-Forwarded-For": "198.51.100.3, 10.0.0.1"}, "198.51.100.3"},
		{"real ip", map[string]string{"X-Real-IP": "192.0.2.44"}, "192.0.2.44"},
		{"remote addr fallback", nil, "203.0.113.7"},
		{"ipv6 loopback", map[string]string{"X-Real-IP": "::1"}, "localhost"},
		{"ipv4 loopback", map[string]string{"X-Forwarded-For": "127.0.0.1"}, "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := Extract(newRequest(tt.headers, nil), "")
			assert.Equal(t, tt.expected, ctx.IPAddress)
		})
	}
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name     string
		ua       string
		expected Client
	}{
		{
			"chrome on windows",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			Client{Device: "Desktop", Browser: "Chrome", Platform: "Windows"},
		},
		{
			"edge on windows",
			"Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 Chrome/120.0 Safari/537.36 Edg/120.0",
			Client{Device: "Desktop", Browser: "Edge", Platform: "Windows"},
		},
		{
			"safari on iphone",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Version/17.0 Mobile/15E148 Safari/604.1",
			Client{Device: "Mobile", Browser: "Safari", Platform: "MacOS"},
		},
		{
			"firefox on linux",
			"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			Client{Device: "Desktop", Browser: "Firefox", Platform: "Linux"},
		},
		{
			"chrome on android",
			"Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 Chrome/120.0 Mobile Safari/537.36",
			Client{Device: "Mobile", Browser: "Chrome", Platform: "Android"},
		},
		{
			"unmatched",
			"curl/8.4.0",
			Client{Device: "Desktop", Browser: "Unknown", Platform: "Unknown"},
		},
		{
			"empty",
			"",
			Client{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseUserAgent(tt.ua))
		})
	}
}

func TestGeoHint(t *testing.T) {
	req := newRequest(map[string]string{
		"X-User-Latitude":  "48.8566",
		"X-User-Longitude": "2.3522",
	}, nil)
	assert.Equal(t, "48.8566,2.3522", GeoHint(req))

	req = newRequest(map[string]string{"X-User-Latitude": "48.8566"}, nil)
	assert.Equal(t, "", GeoHint(req))

	assert.Equal(t, "", GeoHint(newRequest(nil, nil)))
	assert.Equal(t, "", GeoHint(nil))
}
