package requestmeta

import (
	"net"
	"net/http"
	"strings"
)

const (
	// AccessTokenCookie is the session cookie checked when no bearer token
	// is present.
	AccessTokenCookie = "access_token"

	headerForwardedFor = "X-Forwarded-For"
	headerRealIP       = "X-Real-IP"
	headerLatitude     = "X-User-Latitude"
	headerLongitude    = "X-User-Longitude"
)

// Request is the narrow request shape consumed by the extractor, so callers
// are not tied to any particular web framework's request type.
type Request struct {
	Headers    http.Header
	Cookies    map[string]string
	RemoteAddr string
	Method     string
	Path       string
}

// FromHTTP adapts a net/http request into a Request.
func FromHTTP(r *http.Request) *Request {
	if r == nil {
		return nil
	}

	cookies := make(map[string]string)
	for _, cookie := range r.Cookies() {
		cookies[cookie.Name] = cookie.Value
	}

	path := r.URL.RequestURI()

	return &Request{
		Headers:    r.Header,
		Cookies:    cookies,
		RemoteAddr: r.RemoteAddr,
		Method:     r.Method,
		Path:       path,
	}
}

// Context is the normalized view of an inbound request used when recording
// activity. Missing fields degrade to empty strings, never to errors.
type Context struct {
	Token     string
	UserAgent string
	IPAddress string
	Method    string
	Path      string
}

// Client is a coarse user-agent classification.
type Client struct {
	Device   string
	Browser  string
	Platform string
}

// Extract derives a Context from the request. Token resolution order is the
// Authorization bearer header, then the access token cookie, then the
// fallback session id.
func Extract(req *Request, fallbackSessionID string) Context {
	if req == nil {
		return Context{Token: fallbackSessionID}
	}

	token := bearerToken(req.Headers.Get("Authorization"))
	if token == "" {
		token = req.Cookies[AccessTokenCookie]
	}
	if token == "" {
		token = fallbackSessionID
	}

	return Context{
		Token:     token,
		UserAgent: req.Headers.Get("User-Agent"),
		IPAddress: clientIP(req),
		Method:    req.Method,
		Path:      req.Path,
	}
}

func bearerToken(authHeader string) string {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// clientIP prefers proxy headers over the raw connection address and
// normalizes loopback addresses to "localhost".
func clientIP(req *Request) string {
	ip := req.Headers.Get(headerForwardedFor)
	if ip == "" {
		ip = req.Headers.Get(headerRealIP)
	}
	if ip == "" {
		ip = req.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
	}

	if idx := strings.Index(ip, ","); idx >= 0 {
		ip = ip[:idx]
	}
	ip = strings.TrimSpace(ip)

	if ip == "::1" || ip == "127.0.0.1" {
		return "localhost"
	}
	return ip
}

// ParseUserAgent classifies a user-agent string by substring matching. It is
// intentionally not a full UA parser; unmatched values degrade to "Unknown".
func ParseUserAgent(userAgent string) Client {
	if userAgent == "" {
		return Client{}
	}

	ua := strings.ToLower(userAgent)

	var browser string
	switch {
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	default:
		browser = "Unknown"
	}

	var platform string
	switch {
	case strings.Contains(ua, "windows"):
		platform = "Windows"
	case strings.Contains(ua, "mac"):
		platform = "MacOS"
	case strings.Contains(ua, "android"):
		platform = "Android"
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"):
		platform = "iOS"
	case strings.Contains(ua, "linux"):
		platform = "Linux"
	default:
		platform = "Unknown"
	}

	device := "Desktop"
	if strings.Contains(ua, "mobile") {
		device = "Mobile"
	}

	return Client{Device: device, Browser: browser, Platform: platform}
}

// GeoHint formats the optional latitude/longitude headers as "<lat>,<lon>".
// Returns an empty string unless both headers are present.
func GeoHint(req *Request) string {
	if req == nil {
		return ""
	}

	lat := strings.TrimSpace(req.Headers.Get(headerLatitude))
	lon := strings.TrimSpace(req.Headers.Get(headerLongitude))
	if lat == "" || lon == "" {
		return ""
	}
	return lat + "," + lon
}
