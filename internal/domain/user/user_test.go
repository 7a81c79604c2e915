package user

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "Admin", want: RoleAdmin},
		{in: "admin", want: RoleAdmin},
		{in: " INSTRUCTOR ", want: RoleInstructor},
		{in: "student", want: RoleStudent},
		{in: "unassigned", want: RoleUnassigned},
		{in: "owner", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.in)

		if tt.wantErr {
			if err != ErrInvalidRole {
				t.Fatalf("ParseRole(%q) err = %v, want ErrInvalidRole", tt.in, err)
			}
			continue
		}

		if err != nil {
			t.Fatalf("ParseRole(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoleAssignable(t *testing.T) {
	if RoleUnassigned.Assignable() {
		t.Fatalf("unassigned must not be assignable")
	}

	for _, r := range []Role{RoleStudent, RoleInstructor, RoleAdmin} {
		if !r.Assignable() {
			t.Fatalf("%q should be assignable", r)
		}
	}
}

func TestNewFromUpsertRequest_DefaultsRole(t *testing.T) {
	u := NewFromUpsertRequest(UpsertRequest{Name: " Ana ", Email: " Ana@Example.com "})

	if u.Role != RoleUnassigned {
		t.Fatalf("got role %q, want %q", u.Role, RoleUnassigned)
	}
	if u.Email != "ana@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if u.Name != "Ana" {
		t.Fatalf("name not trimmed: %q", u.Name)
	}
}
