package config

import "strings"

const redacted = "xxxxx"

// RedactURI masks the password of a connection string so it can be logged.
// Multi-host MongoDB URIs are not valid net/url input, so the userinfo is
// located by hand.
func RedactURI(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	if schemeEnd < 0 {
		return uri
	}
	prefix := uri[:schemeEnd+3]
	rest := uri[schemeEnd+3:]

	authority := rest
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		authority = rest[:i]
	}

	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return uri
	}

	userinfo := authority[:at]
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return uri
	}

	return prefix + user + ":" + redacted + rest[at:]
}

// Redacted returns a copy of the configuration that is safe to print
func (c *Config) Redacted() *Config {
	masked := *c
	masked.MongoDB.URI = RedactURI(c.MongoDB.URI)
	return &masked
}
