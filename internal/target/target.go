// Package target models a MongoDB connection string as structured fields so
// the database can be swapped without rewriting URI text.
package target

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/mongoscope/internal/redact"
)

const (
	SchemeStandard = "mongodb"
	SchemeSRV      = "mongodb+srv"

	// AdminDatabase is the administrative namespace used for server discovery.
	AdminDatabase = "admin"
)

// Target is an immutable connection target. Use Parse to build one.
type Target struct {
	scheme   string
	user     *url.Userinfo
	hosts    string
	database string
	query    url.Values
}

// ParseError describes a connection string that cannot be used. Its message
// never contains the raw connection string.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "invalid connection string: " + e.Reason
}

// Parse validates uri and splits it into its parts. The URI must carry
// credentials.
func Parse(uri string) (Target, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Target{}, &ParseError{Reason: "empty"}
	}

	u, err := url.Parse(uri)
	if err != nil {
		// url errors echo the input, so only the type of failure is kept.
		return Target{}, &ParseError{Reason: "malformed URI (check percent-encoding of credentials)"}
	}

	if u.Scheme != SchemeStandard && u.Scheme != SchemeSRV {
		return Target{}, &ParseError{Reason: fmt.Sprintf("unsupported scheme %q (want %s or %s)", u.Scheme, SchemeStandard, SchemeSRV)}
	}
	if u.Host == "" {
		return Target{}, &ParseError{Reason: "missing host"}
	}
	if u.Scheme == SchemeSRV && strings.Contains(u.Host, ",") {
		return Target{}, &ParseError{Reason: "mongodb+srv accepts exactly one host"}
	}
	if u.User == nil || u.User.Username() == "" {
		return Target{}, &ParseError{Reason: "missing credentials"}
	}

	database := strings.TrimPrefix(u.Path, "/")
	if strings.Contains(database, "/") {
		return Target{}, &ParseError{Reason: "database name must not contain '/'"}
	}

	return Target{
		scheme:   u.Scheme,
		user:     u.User,
		hosts:    u.Host,
		database: database,
		query:    u.Query(),
	}, nil
}

// WithDatabase returns a copy of t that targets name. When a standard URI has
// no explicit authSource the original database (or admin) is pinned as
// authSource so the credentials keep authenticating against the same database.
// SRV URIs are left alone: their TXT record supplies authSource and an explicit
// option would override it.
func (t Target) WithDatabase(name string) Target {
	next := t
	next.database = name
	next.query = cloneValues(t.query)

	if t.scheme != SchemeSRV && next.query.Get("authSource") == "" {
		source := t.database
		if source == "" {
			source = AdminDatabase
		}
		if source != name {
			next.query.Set("authSource", source)
		}
	}
	return next
}

// Database returns the database named in the path, or "" for none.
func (t Target) Database() string {
	return t.database
}

// Username returns the user the target authenticates as.
func (t Target) Username() string {
	if t.user == nil {
		return ""
	}
	return t.user.Username()
}

// Hosts returns the comma-separated host list.
func (t Target) Hosts() string {
	return t.hosts
}

// URI composes the full connection string, credentials included. Only the
// connection layer should call this.
func (t Target) URI() string {
	u := url.URL{
		Scheme:   t.scheme,
		User:     t.user,
		Host:     t.hosts,
		Path:     "/" + t.database,
		RawQuery: t.query.Encode(),
	}
	return u.String()
}

// String returns the redacted URI, so a Target is safe to print.
func (t Target) String() string {
	return redact.URI(t.URI())
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
