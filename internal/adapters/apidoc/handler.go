// Package apidoc serves the embedded users API OpenAPI document.
package apidoc

import (
	"net/http"

	usersopenapi "usersapi/docs/schema/openapi"
)

// OpenAPISpec returns a copy of the embedded OpenAPI YAML.
func OpenAPISpec() []byte {
	return usersopenapi.Spec()
}

// NewOpenAPIHandler serves the embedded OpenAPI YAML. It is mounted on the
// admin listener next to /metrics.
func NewOpenAPIHandler() http.Handler {
	spec := OpenAPISpec()
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(spec)
	})
}
