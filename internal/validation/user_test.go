package validation

import "testing"

func validPayload() map[string]any {
	return map[string]any{
		"username": "ann",
		"age":      float64(30),
		"hobbies":  []any{"chess", "go"},
	}
}

func TestIsUUID(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"3f1c9b1e-6d4a-4c9b-9a7e-1b2c3d4e5f60", true},
		{"3F1C9B1E-6D4A-4C9B-9A7E-1B2C3D4E5F60", true},
		{"3f1c9b1e6d4a4c9b9a7e1b2c3d4e5f60", false},
		{"3f1c9b1e-6d4a-4c9b-9a7e-1b2c3d4e5f6", false},
		{"3f1c9b1e-6d4a-4c9b-9a7e-1b2c3d4e5f60/", false},
		{"zf1c9b1e-6d4a-4c9b-9a7e-1b2c3d4e5f60", false},
		{"{3f1c9b1e-6d4a-4c9b-9a7e-1b2c3d4e5f60}", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsUUID(tc.input); got != tc.want {
			t.Fatalf("IsUUID(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestIsUserPayload(t *testing.T) {
	if !IsUserPayload(validPayload()) {
		t.Fatalf("expected valid payload")
	}

	withID := validPayload()
	withID["id"] = "client-chosen"
	if !IsUserPayload(withID) {
		t.Fatalf("expected id key to be tolerated")
	}

	emptyHobbies := validPayload()
	emptyHobbies["hobbies"] = []any{}
	if !IsUserPayload(emptyHobbies) {
		t.Fatalf("expected empty hobbies to be valid")
	}

	mutate := func(fn func(map[string]any)) map[string]any {
		p := validPayload()
		fn(p)
		return p
	}
	invalid := map[string]any{
		"nil":              nil,
		"array":            []any{validPayload()},
		"string":           "ann",
		"number":           float64(1),
		"typed nil map":    map[string]any(nil),
		"missing username": mutate(func(p map[string]any) { delete(p, "username") }),
		"missing age":      mutate(func(p map[string]any) { delete(p, "age") }),
		"missing hobbies":  mutate(func(p map[string]any) { delete(p, "hobbies") }),
		"blank username":   mutate(func(p map[string]any) { p["username"] = "  " }),
		"numeric username": mutate(func(p map[string]any) { p["username"] = float64(3) }),
		"string age":       mutate(func(p map[string]any) { p["age"] = "30" }),
		"negative age":     mutate(func(p map[string]any) { p["age"] = float64(-1) }),
		"fractional age":   mutate(func(p map[string]any) { p["age"] = 1.5 }),
		"hobbies string":   mutate(func(p map[string]any) { p["hobbies"] = "chess" }),
		"hobbies numbers":  mutate(func(p map[string]any) { p["hobbies"] = []any{float64(1)} }),
		"unknown field":    mutate(func(p map[string]any) { p["email"] = "a@b.c" }),
	}
	for name, payload := range invalid {
		if IsUserPayload(payload) {
			t.Fatalf("%s: expected payload to be rejected", name)
		}
	}
}

func TestIsUserPatch(t *testing.T) {
	valid := []any{
		map[string]any{},
		map[string]any{"age": float64(5)},
		map[string]any{"username": "bob", "id": "x"},
		map[string]any{"hobbies": []any{}},
	}
	for _, v := range valid {
		if !IsUserPatch(v) {
			t.Fatalf("expected patch %v to be valid", v)
		}
	}
	invalid := []any{
		nil,
		[]any{},
		"x",
		map[string]any{"age": "5"},
		map[string]any{"nickname": "b"},
	}
	for _, v := range invalid {
		if IsUserPatch(v) {
			t.Fatalf("expected patch %v to be rejected", v)
		}
	}
}

func TestUserInputFrom(t *testing.T) {
	in, ok := UserInputFrom(validPayload())
	if !ok {
		t.Fatalf("expected conversion to succeed")
	}
	if in.Username != "ann" || in.Age != 30 || len(in.Hobbies) != 2 || in.Hobbies[1] != "go" {
		t.Fatalf("unexpected input: %+v", in)
	}
	if _, ok := UserInputFrom(map[string]any{"username": "ann"}); ok {
		t.Fatalf("expected conversion of partial payload to fail")
	}
}

func TestUserPatchFrom(t *testing.T) {
	patch, ok := UserPatchFrom(map[string]any{"id": "other", "age": float64(40)})
	if !ok {
		t.Fatalf("expected conversion to succeed")
	}
	if patch.Age == nil || *patch.Age != 40 {
		t.Fatalf("unexpected age: %v", patch.Age)
	}
	if patch.Username != nil || patch.Hobbies != nil {
		t.Fatalf("absent fields must stay nil: %+v", patch)
	}
	if _, ok := UserPatchFrom([]any{}); ok {
		t.Fatalf("expected array patch to fail")
	}
}
