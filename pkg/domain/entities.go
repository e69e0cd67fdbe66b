// Package domain defines the user record, its create and update payloads,
// and the persistence contract consumed by the HTTP layer.
package domain

// EntityUser identifies the only record type managed by usersapi.
const EntityUser = "user"

// User is the persisted record. ID is assigned by the persistence layer on
// creation and never changes afterwards.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Age      int      `json:"age"`
	Hobbies  []string `json:"hobbies"`
}

// UserInput carries the fields required to create a user.
type UserInput struct {
	Username string   `json:"username"`
	Age      int      `json:"age"`
	Hobbies  []string `json:"hobbies"`
}

// UserPatch carries the fields supplied by an update. A nil field was absent
// from the request and leaves the stored value untouched.
type UserPatch struct {
	Username *string   `json:"username,omitempty"`
	Age      *int      `json:"age,omitempty"`
	Hobbies  *[]string `json:"hobbies,omitempty"`
}

// NewUser builds a record from input under the supplied identifier.
func NewUser(id string, in UserInput) User {
	return User{
		ID:       id,
		Username: in.Username,
		Age:      in.Age,
		Hobbies:  cloneStrings(in.Hobbies),
	}
}

// Apply shallow-merges the patch over u. The identifier is preserved.
func (u User) Apply(p UserPatch) User {
	out := u.Clone()
	if p.Username != nil {
		out.Username = *p.Username
	}
	if p.Age != nil {
		out.Age = *p.Age
	}
	if p.Hobbies != nil {
		out.Hobbies = cloneStrings(*p.Hobbies)
	}
	return out
}

// Clone returns a deep copy so callers never share the hobbies slice with a store.
func (u User) Clone() User {
	u.Hobbies = cloneStrings(u.Hobbies)
	return u
}

// IsEmpty reports whether the patch carries no fields.
func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Age == nil && p.Hobbies == nil
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
