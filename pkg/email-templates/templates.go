package emailtemplates

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.html
var builtinTemplates embed.FS

const (
	TEMPLATE_VERIFICATION_CODE = "verification-code"
	TEMPLATE_PASSWORD_RESET    = "password-reset"
	TEMPLATE_PASSWORD_CHANGED  = "password-changed"
)

var templateSubjects = map[string]string{
	TEMPLATE_VERIFICATION_CODE: "Confirm your email address",
	TEMPLATE_PASSWORD_RESET:    "Reset your password",
	TEMPLATE_PASSWORD_CHANGED:  "Your password was changed",
}

func ResolveTemplate(tempName string, templateDef string, contentInfos map[string]string) (content string, err error) {
	if strings.TrimSpace(templateDef) == "" {
		return "", fmt.Errorf("empty template `%s`", tempName)
	}
	tmpl, err := template.New(tempName).Parse(templateDef)
	if err != nil {
		return "", fmt.Errorf("error when parsing template %s: %v", tempName, err)
	}
	var tpl bytes.Buffer

	err = tmpl.Execute(&tpl, contentInfos)
	if err != nil {
		return "", fmt.Errorf("error during executing template %s: %v", tempName, err)
	}
	return tpl.String(), nil
}

// BuildEmailContent renders one of the built-in message templates and returns
// the subject line together with the HTML body.
func BuildEmailContent(messageType string, contentInfos map[string]string) (subject string, htmlContent string, err error) {
	subject, ok := templateSubjects[messageType]
	if !ok {
		return "", "", fmt.Errorf("unknown message type `%s`", messageType)
	}

	templateDef, err := builtinTemplates.ReadFile("templates/" + messageType + ".html")
	if err != nil {
		return "", "", fmt.Errorf("error when reading template %s: %v", messageType, err)
	}

	htmlContent, err = ResolveTemplate(messageType, string(templateDef), contentInfos)
	if err != nil {
		return "", "", err
	}
	return subject, htmlContent, nil
}

// CheckAllTemplatesParsable renders every built-in template with empty
// content infos, to catch broken template definitions at startup.
func CheckAllTemplatesParsable() error {
	for messageType := range templateSubjects {
		_, _, err := BuildEmailContent(messageType, map[string]string{})
		if err != nil {
			return err
		}
	}
	return nil
}
