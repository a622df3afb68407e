package types

import "time"

// AuthKind selects how a custom provider's credential is transmitted.
type AuthKind string

const (
	AuthBearer     AuthKind = "bearer"      // Authorization-style header with "Bearer " prefix
	AuthHeader     AuthKind = "header"      // raw credential in a named header
	AuthQueryParam AuthKind = "query-param" // credential appended as a query parameter
)

// AuthSpec describes credential placement for a custom provider.
// KeyName is the header or query parameter name; for bearer auth it
// defaults to "Authorization" when empty.
type AuthSpec struct {
	Kind    AuthKind `json:"kind" yaml:"kind"`
	KeyName string   `json:"key_name,omitempty" yaml:"key_name,omitempty"`
}

// RequestShape tags how a custom provider's request template is laid out.
// The shape is decided once when the configuration is saved, never
// re-inspected per call.
type RequestShape string

const (
	// ShapeStructured means the template is an object with "body" and
	// optionally "query" sections.
	ShapeStructured RequestShape = "structured"
	// ShapeBareBody means the whole template is the request body.
	ShapeBareBody RequestShape = "bare"
)

// CustomProvider is a user-defined, template-driven provider
// configuration. The engine only reads it; ownership stays with the
// provider store.
type CustomProvider struct {
	ID              string       `json:"id" yaml:"id"`
	Name            string       `json:"name" yaml:"name"`
	Endpoint        string       `json:"endpoint" yaml:"endpoint"`
	Method          string       `json:"method,omitempty" yaml:"method,omitempty"` // default POST
	Auth            AuthSpec     `json:"auth" yaml:"auth"`
	RequestTemplate any          `json:"request_template" yaml:"request_template"`
	Shape           RequestShape `json:"shape,omitempty" yaml:"shape,omitempty"`
	ResponsePath    string       `json:"response_path" yaml:"response_path"`
	Models          []string     `json:"models,omitempty" yaml:"models,omitempty"`
	CreatedAt       time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" yaml:"updated_at"`
}

// CustomProviderUpdate contains fields that can be updated on a stored
// custom provider configuration.
type CustomProviderUpdate struct {
	Name            *string   `json:"name,omitempty"`
	Endpoint        *string   `json:"endpoint,omitempty"`
	Method          *string   `json:"method,omitempty"`
	Auth            *AuthSpec `json:"auth,omitempty"`
	RequestTemplate any       `json:"request_template,omitempty"`
	ResponsePath    *string   `json:"response_path,omitempty"`
	Models          []string  `json:"models,omitempty"`
}
