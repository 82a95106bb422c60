// Package api embeds the OpenAPI document served at /api/docs.
package api

import _ "embed"

// OpenAPISpec holds the raw OpenAPI 3.0 document for the HTTP API.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
