package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/brandlift/w9-backend/pkg/logger"
)

// Sender delivers a notification email to a recipient. Implementations must
// be safe for concurrent use; callers treat delivery as best-effort.
type Sender interface {
	Send(toEmail, toName, subject, message string) error
}

// SMTPSender sends mail through a plain SMTP relay. When no credentials are
// configured it degrades to logging the message, which keeps local
// development working without a mail account.
type SMTPSender struct {
	host     string
	port     string
	from     string
	password string
}

func NewSMTPSender(host, port, from, password string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		from:     from,
		password: password,
	}
}

func (s *SMTPSender) Send(toEmail, toName, subject, message string) error {
	if s.from == "" || s.password == "" {
		logger.Info("[DEV MODE] email suppressed, no SMTP credentials", map[string]interface{}{
			"to":      toEmail,
			"subject": subject,
		})
		return nil
	}

	body := fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; padding: 20px; background-color: #f5f5f5;">
	<div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 40px; border-radius: 10px;">
		<h1 style="color: #333; margin-bottom: 20px;">%s</h1>
		<p style="color: #666; line-height: 1.6;">Hi %s,</p>
		<p style="color: #666; line-height: 1.6; white-space: pre-line;">%s</p>
		<p style="color: #999; font-size: 14px; margin-top: 30px;">
			This is an automated message about your tax form. Please do not reply.
		</p>
	</div>
</body>
</html>
`, subject, toName, message)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n%s",
		s.from, toEmail, subject, body,
	))

	auth := smtp.PlainAuth("", s.from, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := smtp.SendMail(addr, auth, s.from, []string{toEmail}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
