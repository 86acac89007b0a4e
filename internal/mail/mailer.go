// Package mail dispatches transactional email for the auth flows.
package mail

import (
	"context"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// Mailer sends the password-reset notification. The token is embedded in a
// reset link pointing at the frontend.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetToken string) error
}

// SMTPConfig carries the transport settings for the SMTP mailer.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	TLS         bool
	FrontendURL string
}

// SMTPMailer delivers mail over SMTP using go-mail.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, resetToken string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(m.cfg.FrontendURL, "/"), resetToken)

	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject("Password Reset Request")
	msg.SetBodyString(gomail.TypeTextPlain, resetTextBody(resetURL))
	msg.AddAlternativeString(gomail.TypeTextHTML, resetHTMLBody(resetURL))

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
	}
	if m.cfg.TLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	if m.cfg.Username != "" && m.cfg.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}

	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send password reset email: %w", err)
	}
	return nil
}

func resetTextBody(resetURL string) string {
	return fmt.Sprintf(`Hello,

You have requested to reset your password. Please click the link below to reset it:

%s

If you did not request this reset, please ignore this email.

This link will expire in 24 hours.

Best regards,
Your Journal App Team
`, resetURL)
}

func resetHTMLBody(resetURL string) string {
	return fmt.Sprintf(`<html>
	<body>
		<p>Hello,</p>
		<p>You have requested to reset your password. Please click the link below to reset it:</p>
		<p><a href="%s">Reset Password</a></p>
		<p>If you did not request this reset, please ignore this email.</p>
		<p>This link will expire in 24 hours.</p>
		<p>Best regards,<br>Your Journal App Team</p>
	</body>
</html>`, resetURL)
}

var _ Mailer = (*SMTPMailer)(nil)
