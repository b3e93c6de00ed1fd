package emailtemplates

import (
	"strings"
	"testing"
)

func TestBuildEmailContent(t *testing.T) {
	t.Run("unknown message type", func(t *testing.T) {
		_, _, err := BuildEmailContent("no-such-template", nil)
		if err == nil {
			t.Error("expected error for unknown message type")
		}
	})

	t.Run("verification code", func(t *testing.T) {
		subject, content, err := BuildEmailContent(TEMPLATE_VERIFICATION_CODE, map[string]string{
			"appName":   "LearnHub",
			"fullName":  "Ada Lovelace",
			"code":      "482915",
			"expiresAt": "Feb 10, 2026 12:15 UTC",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if subject == "" {
			t.Error("subject should not be empty")
		}
		if !strings.Contains(content, "482915") {
			t.Errorf("content should contain the code: %s", content)
		}
		if !strings.Contains(content, "Ada Lovelace") {
			t.Errorf("content should contain the recipient name: %s", content)
		}
	})

	t.Run("password reset link", func(t *testing.T) {
		_, content, err := BuildEmailContent(TEMPLATE_PASSWORD_RESET, map[string]string{
			"appName":   "LearnHub",
			"fullName":  "Ada Lovelace",
			"resetURL":  "https://app.learnhub.io/reset?token=abc",
			"expiresAt": "Feb 10, 2026 13:00 UTC",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(content, "https://app.learnhub.io/reset?token=abc") {
			t.Errorf("content should contain the reset link: %s", content)
		}
	})
}

func TestCheckAllTemplatesParsable(t *testing.T) {
	if err := CheckAllTemplatesParsable(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestResolveTemplate(t *testing.T) {
	t.Run("empty template", func(t *testing.T) {
		_, err := ResolveTemplate("test", "", nil)
		if err == nil {
			t.Error("expected error for empty template")
		}
	})

	t.Run("with content infos", func(t *testing.T) {
		content, err := ResolveTemplate("test", `Hello {{index . "name"}}!`, map[string]string{"name": "World"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if content != "Hello World!" {
			t.Errorf("unexpected content: %s", content)
		}
	})
}
