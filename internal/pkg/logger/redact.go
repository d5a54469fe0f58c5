package logger

import "regexp"

var accessTokenRegex = regexp.MustCompile(`(access_token|api_key|developer-token)=[^&\s"]+`)

// RedactSecret masks a credential for safe logging, keeping a short
// prefix so operators can tell which key was in play.
// "EAABsbCS1iHg..." → "EAAB***"
func RedactSecret(secret string) string {
	if len(secret) <= 4 {
		return "***"
	}
	return secret[:4] + "***"
}

// ScrubURL removes credential query parameters embedded in a URL or
// request line. Platform clients carry tokens in the query string, so
// raw URLs must never reach the log as-is.
func ScrubURL(s string) string {
	return accessTokenRegex.ReplaceAllString(s, "$1=***")
}
