package domain

import "testing"

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func TestUserApplyShallowMerge(t *testing.T) {
	base := User{ID: "a", Username: "ann", Age: 30, Hobbies: []string{"chess"}}

	updated := base.Apply(UserPatch{Age: intPtr(31)})
	if updated.ID != "a" || updated.Username != "ann" || updated.Age != 31 {
		t.Fatalf("unexpected merge result: %+v", updated)
	}
	if len(updated.Hobbies) != 1 || updated.Hobbies[0] != "chess" {
		t.Fatalf("expected hobbies retained, got %v", updated.Hobbies)
	}

	hobbies := []string{}
	cleared := base.Apply(UserPatch{Username: strPtr("bob"), Hobbies: &hobbies})
	if cleared.Username != "bob" || len(cleared.Hobbies) != 0 {
		t.Fatalf("unexpected merge result: %+v", cleared)
	}
	if base.Username != "ann" || len(base.Hobbies) != 1 {
		t.Fatalf("apply mutated the receiver: %+v", base)
	}
}

func TestUserCloneIsolatesHobbies(t *testing.T) {
	base := User{ID: "a", Hobbies: []string{"chess"}}
	clone := base.Clone()
	clone.Hobbies[0] = "go"
	if base.Hobbies[0] != "chess" {
		t.Fatalf("clone shares hobbies with original")
	}
}

func TestNewUserNormalisesHobbies(t *testing.T) {
	u := NewUser("id-1", UserInput{Username: "ann", Age: 1})
	if u.Hobbies == nil {
		t.Fatalf("expected non-nil hobbies so records encode as []")
	}
	if u.ID != "id-1" {
		t.Fatalf("unexpected id %q", u.ID)
	}
}

func TestUserPatchIsEmpty(t *testing.T) {
	if !(UserPatch{}).IsEmpty() {
		t.Fatalf("zero patch should be empty")
	}
	if (UserPatch{Age: intPtr(0)}).IsEmpty() {
		t.Fatalf("patch with age should not be empty")
	}
}
