// Package validation holds the pure request checks run before a payload or
// identifier reaches persistence. Nothing here performs I/O or panics on
// malformed input; failure is reported only through the boolean result.
package validation

import (
	"math"
	"regexp"
	"strings"

	"usersapi/pkg/domain"
)

const (
	fieldID       = "id"
	fieldUsername = "username"
	fieldAge      = "age"
	fieldHobbies  = "hobbies"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsUUID reports whether s is a canonical 8-4-4-4-12 hexadecimal UUID.
func IsUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

// IsUserPayload reports whether v is a JSON object carrying every field a
// new user needs. An "id" key is tolerated because the store assigns it.
func IsUserPayload(v any) bool {
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return false
	}
	for _, field := range []string{fieldUsername, fieldAge, fieldHobbies} {
		if _, present := obj[field]; !present {
			return false
		}
	}
	return fieldsWellTyped(obj)
}

// IsUserPatch reports whether v is a JSON object whose present fields have
// the same types a create would require. Absent fields are allowed.
func IsUserPatch(v any) bool {
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return false
	}
	return fieldsWellTyped(obj)
}

// UserInputFrom converts a value accepted by IsUserPayload into domain input.
func UserInputFrom(v any) (domain.UserInput, bool) {
	if !IsUserPayload(v) {
		return domain.UserInput{}, false
	}
	obj := v.(map[string]any)
	age, _ := asAge(obj[fieldAge])
	hobbies, _ := asStrings(obj[fieldHobbies])
	return domain.UserInput{
		Username: obj[fieldUsername].(string),
		Age:      age,
		Hobbies:  hobbies,
	}, true
}

// UserPatchFrom converts a value accepted by IsUserPatch into a domain patch.
// A supplied "id" is dropped so updates never rewrite the identifier.
func UserPatchFrom(v any) (domain.UserPatch, bool) {
	if !IsUserPatch(v) {
		return domain.UserPatch{}, false
	}
	obj := v.(map[string]any)
	var patch domain.UserPatch
	if raw, ok := obj[fieldUsername]; ok {
		name := raw.(string)
		patch.Username = &name
	}
	if raw, ok := obj[fieldAge]; ok {
		age, _ := asAge(raw)
		patch.Age = &age
	}
	if raw, ok := obj[fieldHobbies]; ok {
		hobbies, _ := asStrings(raw)
		patch.Hobbies = &hobbies
	}
	return patch, true
}

func fieldsWellTyped(obj map[string]any) bool {
	for key, value := range obj {
		switch key {
		case fieldID:
		case fieldUsername:
			name, ok := value.(string)
			if !ok || strings.TrimSpace(name) == "" {
				return false
			}
		case fieldAge:
			if _, ok := asAge(value); !ok {
				return false
			}
		case fieldHobbies:
			if _, ok := asStrings(value); !ok {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func asAge(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case int:
		return n, n >= 0
	default:
		return 0, false
	}
}

func asStrings(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
