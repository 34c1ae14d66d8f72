package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"registrar@campus.edu",
		"first.last@cs.campus.edu",
		"club+events@campus.edu",
		"ops@localhost",
	}
	invalid := []string{
		"",
		"  ",
		"registrar",
		"registrar@",
		"@campus.edu",
		".dot@campus.edu",
		"dot.@campus.edu",
		"two..dots@campus.edu",
		"x@campus..edu",
		"Front Desk <desk@campus.edu>",
		"front desk@campus.edu",
	}
	for _, s := range valid {
		if !IsValidEmail(s) {
			t.Errorf("IsValidEmail(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsValidEmail(s) {
			t.Errorf("IsValidEmail(%q) = true, want false", s)
		}
	}
}

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.campus.edu/lost/umbrella.jpg", true},
		{"http://localhost:8080/img.png", true},
		{"  https://campus.edu/a.png  ", true},
		{"", false},
		{"campus.edu/a.png", false},
		{"//campus.edu/a.png", false},
		{"ftp://campus.edu/a.png", false},
		{"data:image/png;base64,AAAA", false},
		{"file:///tmp/a.png", false},
	}
	for _, tt := range tests {
		if got := IsValidHTTPURL(tt.url); got != tt.want {
			t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestIsValidObjectID(t *testing.T) {
	if !IsValidObjectID(" 65a1b2c3d4e5f60718293a4b ") {
		t.Error("padded hex id rejected")
	}
	for _, s := range []string{"", "65a1b2c3d4e5f60718293a4", "65a1b2c3d4e5f60718293a4z", "lost-item-1"} {
		if IsValidObjectID(s) {
			t.Errorf("IsValidObjectID(%q) = true", s)
		}
	}
}

func TestValidate_Messages(t *testing.T) {
	type signup struct {
		Name  string `validate:"required,max=12" label:"Full name"`
		Email string `validate:"required,email" label:"Email"`
	}
	tests := []struct {
		name  string
		in    signup
		first string
	}{
		{"ok", signup{Name: "Ama", Email: "ama@campus.edu"}, ""},
		{"missing name", signup{Email: "ama@campus.edu"}, "Full name is required."},
		{"long name", signup{Name: "Ama Owusu-Mensah", Email: "ama@campus.edu"}, "Full name must be at most 12 characters."},
		{"bad email", signup{Name: "Ama", Email: "ama"}, "A valid email address is required."},
		{"field order", signup{}, "Full name is required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.in)
			if res.HasErrors() != (tt.first != "") {
				t.Fatalf("HasErrors = %v, errors %v", res.HasErrors(), res.Errors)
			}
			if res.First() != tt.first {
				t.Errorf("First() = %q, want %q", res.First(), tt.first)
			}
		})
	}
}

func TestResult(t *testing.T) {
	var none *Result
	if none.HasErrors() || (&Result{}).All() != "" || (&Result{}).First() != "" {
		t.Error("empty result reports errors")
	}
	r := &Result{Errors: []FieldError{{Message: "Title is required."}, {Message: "Location is required."}}}
	if r.First() != "Title is required." {
		t.Errorf("First() = %q", r.First())
	}
	if r.All() != "Title is required.; Location is required." {
		t.Errorf("All() = %q", r.All())
	}
	if r.Error() != r.All() {
		t.Error("Error() differs from All()")
	}
}
