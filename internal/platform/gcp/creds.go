package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// ClientOptions turns a service-account credential reference into client
// options. raw may be inline JSON or a path to a key file; empty means
// application default credentials.
func ClientOptions(raw string) []option.ClientOption {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	return []option.ClientOption{option.WithCredentialsFile(raw)}
}

func ClientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return ClientOptions(creds)
}
