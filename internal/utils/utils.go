package utils

import (
	"net/url"
	"strings"
)

// ObfuscateKey masks an API key, keeping the first 2 and last 2 characters.
// All middle characters are replaced with '*', preserving the original length.
// Example: "ab********yz"
func ObfuscateKey(key string) string {
	key = strings.TrimSpace(key)
	n := len(key)
	if n == 0 {
		return ""
	}
	if n <= 4 {
		return strings.Repeat("*", n)
	}
	return key[:2] + strings.Repeat("*", n-4) + key[n-2:]
}

// RedactURI masks the password of the userinfo and any api_key query value.
// Unparsable input is returned fully masked.
func RedactURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid uri]"
	}
	if u.User != nil {
		if pw, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), ObfuscateKey(pw))
		}
	}
	if q := u.Query(); q.Has("api_key") {
		q.Set("api_key", ObfuscateKey(q.Get("api_key")))
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// NormalizeRoutePrefix returns "" or "/prefix" from input, accepting raw paths or full URLs.
func NormalizeRoutePrefix(input string) string {
	s := strings.TrimSpace(input)
	if s == "" || s == "/" {
		return ""
	}
	// If someone passes a full URL, keep only the .Path.
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil {
			s = u.Path
		}
	}
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	if s == "/" {
		return ""
	}
	return s
}
