package utils

import (
	"testing"
)

func TestSanitizeEmail(t *testing.T) {
	t.Run("with different formats", func(t *testing.T) {
		email := SanitizeEmail("\n23234@test.DE")
		if email != "23234@test.de" {
			t.Errorf("unexpected email: %s", email)
		}

		email = SanitizeEmail("  \n 23234@test.DE \n\r")
		if email != "23234@test.de" {
			t.Errorf("unexpected email: %s", email)
		}

		email = SanitizeEmail("23234@test.de")
		if email != "23234@test.de" {
			t.Errorf("unexpected email: %s", email)
		}
	})
}

func TestSanitizeUsername(t *testing.T) {
	username := SanitizeUsername(" Alice_01 \n")
	if username != "alice_01" {
		t.Errorf("unexpected username: %s", username)
	}
}

func TestBlurEmailAddress(t *testing.T) {
	t.Run("with different formats", func(t *testing.T) {
		email := BlurEmailAddress("a@test.de")
		if email != "a****@test.de" {
			t.Errorf("unexpected email: %s", email)
		}

		email = BlurEmailAddress("a1234@test.de")
		if email != "a****@test.de" {
			t.Errorf("unexpected email: %s", email)
		}
	})
}

func TestCheckPasswordFormat(t *testing.T) {
	t.Run("with a too short password", func(t *testing.T) {
		if CheckPasswordFormat("1n34T6@") {
			t.Error("should be false")
		}
	})
	t.Run("with a too weak password", func(t *testing.T) {
		if CheckPasswordFormat("133426781334") {
			t.Error("should be false")
		}
		if CheckPasswordFormat("11111aaaa1111") {
			t.Error("should be false")
		}
	})
	t.Run("with good passwords", func(t *testing.T) {
		if !CheckPasswordFormat("1n34T678abcd") {
			t.Error("should be true")
		}
		if !CheckPasswordFormat("nnnnnnT@@nnnn") {
			t.Error("should be true")
		}
		if !CheckPasswordFormat("Tt1,.Lo%4abcd") {
			t.Error("should be true")
		}
	})
}

func TestCheckUsernameFormat(t *testing.T) {
	tests := []struct {
		username string
		expected bool
	}{
		{"", false},
		{"ab", false},
		{"alice", true},
		{"alice.b-01_x", true},
		{"Alice", false}, // must be sanitized to lowercase first
		{"alice b", false},
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
	}
	for _, test := range tests {
		if got := CheckUsernameFormat(test.username); got != test.expected {
			t.Errorf("CheckUsernameFormat(%q) = %v, expected %v", test.username, got, test.expected)
		}
	}
}

func TestCheckEmailFormat(t *testing.T) {
	t.Run("with missing @", func(t *testing.T) {
		if CheckEmailFormat("t.t.com") {
			t.Error("should be false")
		}
	})

	t.Run("with missing domain", func(t *testing.T) {
		if CheckEmailFormat("t@") {
			t.Error("should be false")
		}
		if CheckEmailFormat("t@t") {
			t.Error("should be false")
		}
	})

	t.Run("with wrong local format", func(t *testing.T) {
		if CheckEmailFormat("@t.com") {
			t.Error("should be false")
		}
	})

	t.Run("with too many @", func(t *testing.T) {
		if CheckEmailFormat("t@@t.com") {
			t.Error("should be false")
		}
	})

	t.Run("with correct format", func(t *testing.T) {
		if !CheckEmailFormat("t@t.com") {
			t.Error("should be true")
		}
		if !CheckEmailFormat("t+1@t.com") {
			t.Error("should be true")
		}
	})
}

func TestGenerateOTPCode(t *testing.T) {
	code, err := GenerateOTPCode(6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(code) != 6 {
		t.Errorf("unexpected code length: %d", len(code))
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Errorf("unexpected character in code: %q", c)
		}
	}
}

func TestGenerateUniqueTokenString(t *testing.T) {
	t1, err := GenerateUniqueTokenString()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t2, err := GenerateUniqueTokenString()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if t1 == t2 {
		t.Error("two generated tokens should not be equal")
	}
	if len(t1) < 32 {
		t.Errorf("token unexpectedly short: %d", len(t1))
	}
}
