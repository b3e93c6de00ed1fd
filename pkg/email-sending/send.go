package emailsending

import (
	"fmt"
	"net/url"
	"time"

	emailtemplates "github.com/learnhub-io/lms-backend/pkg/email-templates"
	smtpclient "github.com/learnhub-io/lms-backend/pkg/smtp-client"
)

type MailSenderConfig struct {
	AppName          string `yaml:"appName"`
	PasswordResetURL string `yaml:"passwordResetUrl"`
}

// MailSender renders the built-in message templates and delivers them
// through the SMTP connection pool.
type MailSender struct {
	smtpClients *smtpclient.SmtpClients
	config      MailSenderConfig
	overrides   *smtpclient.HeaderOverrides
}

func NewMailSender(
	smtpClients *smtpclient.SmtpClients,
	config MailSenderConfig,
	overrides *smtpclient.HeaderOverrides,
) *MailSender {
	return &MailSender{
		smtpClients: smtpClients,
		config:      config,
		overrides:   overrides,
	}
}

func (m *MailSender) SendVerificationCode(to string, fullName string, code string, expiresAt int64) error {
	return m.sendByTemplate(to, emailtemplates.TEMPLATE_VERIFICATION_CODE, map[string]string{
		"appName":   m.config.AppName,
		"fullName":  fullName,
		"code":      code,
		"expiresAt": formatExpiry(expiresAt),
	})
}

func (m *MailSender) SendPasswordResetLink(to string, fullName string, token string, expiresAt int64) error {
	return m.sendByTemplate(to, emailtemplates.TEMPLATE_PASSWORD_RESET, map[string]string{
		"appName":   m.config.AppName,
		"fullName":  fullName,
		"resetURL":  m.buildResetURL(to, token),
		"expiresAt": formatExpiry(expiresAt),
	})
}

func (m *MailSender) SendPasswordChangedNotice(to string, fullName string) error {
	return m.sendByTemplate(to, emailtemplates.TEMPLATE_PASSWORD_CHANGED, map[string]string{
		"appName":  m.config.AppName,
		"fullName": fullName,
	})
}

func (m *MailSender) sendByTemplate(to string, messageType string, contentInfos map[string]string) error {
	subject, htmlContent, err := emailtemplates.BuildEmailContent(messageType, contentInfos)
	if err != nil {
		return err
	}
	return m.smtpClients.SendMail([]string{to}, subject, htmlContent, m.overrides)
}

func (m *MailSender) buildResetURL(email string, token string) string {
	query := url.Values{}
	query.Set("email", email)
	query.Set("token", token)
	return fmt.Sprintf("%s?%s", m.config.PasswordResetURL, query.Encode())
}

func formatExpiry(expiresAt int64) string {
	return time.Unix(expiresAt, 0).UTC().Format("Jan 2, 2006 15:04 MST")
}
