package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultMethod is used when a descriptor does not set one.
const DefaultMethod = http.MethodGet

// ErrNoDomain is returned by Domain when a URL has no network location.
var ErrNoDomain = errors.New("url has no network location")

// token is the RFC 7230 token grammar used for methods and header names.
var token = regexp.MustCompile("^[!#$%&'*+\\-.^_`|~0-9A-Za-z]+$")

// Descriptor is one configured endpoint. It is immutable once loaded.
type Descriptor struct {
	Name    string            `json:"name"`
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"-"`
}

// Domain returns the descriptor's aggregation key, see Domain.
func (d Descriptor) Domain() (string, error) {
	return Domain(d.URL)
}

// Validate checks the parts of a descriptor that cannot be recovered per
// cycle. A malformed URL is not an error here: it only makes the descriptor
// contribute nothing.
func (d Descriptor) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Method,
			validation.Required,
			validation.Match(token).Error("must be an HTTP method token"),
		),
		validation.Field(&d.Headers,
			validation.By(validateHeaderNames),
		),
	)
}

func validateHeaderNames(value interface{}) error {
	headers, ok := value.(map[string]string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string map")
	}
	for name := range headers {
		if !token.MatchString(name) {
			return validation.NewError("validation_invalid_header", fmt.Sprintf("invalid header name %q", name))
		}
	}
	return nil
}

// Domain extracts the network location (host with optional port) from a raw
// URL. Scheme, credentials, path and query are excluded.
func Domain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDomain, err)
	}
	if u.Host == "" {
		return "", ErrNoDomain
	}
	return u.Host, nil
}
