// Package openapi embeds the OpenAPI document describing the users API.
package openapi

import _ "embed"

// UsersSpec contains the OpenAPI document for the /api/users resource.
//
//go:embed users.yaml
var UsersSpec []byte

// Spec returns a defensive copy of the embedded OpenAPI YAML.
func Spec() []byte {
	return append([]byte(nil), UsersSpec...)
}
