// Package envtest provides credential resolution used only by this
// module's own tests against real cloud backends; it is not a
// general-purpose credential facility and must never be imported outside
// _test.go files.
package envtest

import "os"

// Credentials are a resolved access key pair for exercising a real object
// store backend from a test.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Valid reports whether both fields are non-empty.
func (c Credentials) Valid() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// AWS resolves AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY, falling back to
// the lowercase aws_access_key_id/aws_secret_access_key names some CI
// environments set instead.
func AWS() Credentials {
	return Credentials{
		AccessKeyID:     firstNonEmpty("AWS_ACCESS_KEY_ID", "aws_access_key_id"),
		SecretAccessKey: firstNonEmpty("AWS_SECRET_ACCESS_KEY", "aws_secret_access_key"),
	}
}

func firstNonEmpty(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}
