// Package redact turns connection strings and documents into display-safe text.
// Nothing in this package performs I/O.
package redact

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	// Mask replaces the user:password segment of a connection string.
	Mask = "***:***"

	// Ellipsis is appended to previews cut at the byte budget.
	Ellipsis = "..."

	// Placeholder is shown when a document cannot be rendered at all.
	Placeholder = "[unrenderable document]"

	// ServerPreviewBytes is the preview budget for whole-server crawls.
	ServerPreviewBytes = 80

	// DatabasePreviewBytes is the preview budget for single-database crawls.
	DatabasePreviewBytes = 100
)

// sensitiveQueryKeys hold secrets even though they live in the query string.
var sensitiveQueryKeys = []string{
	"authMechanismProperties",
	"tlsCertificateKeyFilePassword",
	"sslPEMKeyPassword",
}

var (
	userinfoPattern = regexp.MustCompile(`//\S*@`)
	uriPattern      = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[^\s"']+`)
)

// Policy decides which fields are surfaced verbatim in a sample.
type Policy struct {
	// IdentityFields are matched case-insensitively against top-level keys.
	IdentityFields []string
}

// DefaultPolicy surfaces username, name and email fields.
func DefaultPolicy() Policy {
	return Policy{IdentityFields: []string{"username", "name", "email"}}
}

func (p Policy) isIdentity(key string) bool {
	for _, f := range p.IdentityFields {
		if strings.EqualFold(f, key) {
			return true
		}
	}
	return false
}

// RenderError reports a document that could not be serialized for preview.
// Document swallows it and returns Placeholder instead.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render document: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// URI masks the credentials of a connection string. The result is for display
// only and must never be used to connect. Every occurrence of the password in
// the hosts, path and query is masked; the scheme and the mask itself are fixed
// text, so a password that is a substring of "mongodb+srv://***:***@" can
// still be read there.
func URI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return userinfoPattern.ReplaceAllString(uri, "//"+Mask+"@")
	}

	var rest strings.Builder
	rest.WriteString(u.Host)
	rest.WriteString(u.EscapedPath())
	if u.RawQuery != "" {
		rest.WriteString("?")
		rest.WriteString(maskQuery(u.RawQuery))
	}

	tail := rest.String()
	// The password must not survive even when it also occurs in the host
	// list or the query.
	if password, ok := u.User.Password(); ok && password != "" {
		tail = strings.ReplaceAll(tail, password, "***")
		tail = strings.ReplaceAll(tail, url.QueryEscape(password), "***")
	}

	if u.User == nil {
		return u.Scheme + "://" + tail
	}
	return u.Scheme + "://" + Mask + "@" + tail
}

// maskQuery hides sensitive option values while keeping option order.
func maskQuery(raw string) string {
	pairs := strings.Split(raw, "&")
	for i, pair := range pairs {
		key, _, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		for _, sensitive := range sensitiveQueryKeys {
			if strings.EqualFold(key, sensitive) {
				pairs[i] = key + "=***"
			}
		}
	}
	return strings.Join(pairs, "&")
}

// Text scrubs every connection string embedded in free text, such as driver
// error messages.
func Text(s string) string {
	return uriPattern.ReplaceAllStringFunc(s, URI)
}

// Document renders a sampled document within budget bytes. Identity fields are
// shown as "Label: value"; anything else gets a relaxed Extended JSON preview.
// It never panics.
func Document(doc bson.D, policy Policy, budget int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = Placeholder
		}
	}()

	text, err := render(doc, policy)
	if err != nil {
		return Placeholder
	}
	return Truncate(text, budget)
}

func render(doc bson.D, policy Policy) (string, error) {
	var parts []string
	for _, elem := range doc {
		if !policy.isIdentity(elem.Key) {
			continue
		}
		value, err := formatValue(elem.Value)
		if err != nil {
			return "", err
		}
		parts = append(parts, label(elem.Key)+": "+value)
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", "), nil
	}

	if doc == nil {
		doc = bson.D{}
	}
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return "", &RenderError{Err: err}
	}
	return string(data), nil
}

func formatValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		return val, nil
	case bool, int32, int64, float64, int:
		return fmt.Sprint(val), nil
	}

	// Nested values go through Extended JSON wrapped in a one-field document.
	data, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: v}}, false, false)
	if err != nil {
		return "", &RenderError{Err: err}
	}
	s := string(data)
	s = strings.TrimPrefix(s, `{"v":`)
	s = strings.TrimSuffix(s, "}")
	return s, nil
}

func label(key string) string {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return strings.ToUpper(string(r)) + key[size:]
}

// Truncate cuts s to at most budget bytes without splitting a UTF-8 sequence
// and appends Ellipsis when anything was removed.
func Truncate(s string, budget int) string {
	if budget <= 0 || len(s) <= budget {
		return s
	}
	cut := budget
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + Ellipsis
}
