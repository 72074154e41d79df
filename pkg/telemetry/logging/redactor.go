package logging

import "strings"

// sensitiveKeys are attribute key fragments whose values are redacted.
var sensitiveKeys = []string{"session", "cookie"}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lowerKey, s) {
			return true
		}
	}
	return false
}

// RedactSession shortens a session id to a prefix safe for logs.
func RedactSession(id string) string {
	if id == "" {
		return ""
	}
	if len(id) <= 4 {
		return "***"
	}
	return id[:4] + "***"
}
