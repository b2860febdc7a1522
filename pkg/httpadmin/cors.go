package httpadmin

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/cors"
)

// CORSFromEnvironment builds the admin server's CORS policy from
// CORS_ALLOWED_ORIGINS (comma-separated, "*" permitted), CORS_ALLOWED_METHODS,
// CORS_ALLOWED_HEADERS, CORS_ALLOW_CREDENTIALS, and CORS_MAX_AGE.
func CORSFromEnvironment() func(http.Handler) http.Handler {
	origins := splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS"), []string{"*"})
	methods := splitCSV(os.Getenv("CORS_ALLOWED_METHODS"), []string{http.MethodGet})
	headers := splitCSV(os.Getenv("CORS_ALLOWED_HEADERS"), []string{"Content-Type"})

	credentials := false
	if v, err := strconv.ParseBool(os.Getenv("CORS_ALLOW_CREDENTIALS")); err == nil {
		credentials = v
	}
	maxAge := 300
	if v, err := strconv.Atoi(os.Getenv("CORS_MAX_AGE")); err == nil {
		maxAge = v
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   methods,
		AllowedHeaders:   headers,
		AllowCredentials: credentials,
		MaxAge:           maxAge,
	})
}

func splitCSV(s string, def []string) []string {
	if s == "" {
		return def
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
