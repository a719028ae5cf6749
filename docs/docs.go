package docs

import _ "embed"

// OpenAPISpec holds the embedded OpenAPI description served at /swagger.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
