// Package mail delivers reminder notifications over SMTP. Delivery is
// best-effort: the reminder scheduler logs failures and retries the event on
// its next scan, so nothing here rolls back application state.
package mail

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"remindly/config"
)

// Sender dispatches one HTML notification. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender sends mail through a gomail dialer.
type SMTPSender struct {
	dialer  *gomail.Dialer
	from    string
	timeout time.Duration
}

// NewSMTPSender builds an SMTPSender from config.
func NewSMTPSender(cfg *config.MailConfig) *SMTPSender {
	timeout := cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMTPSender{
		dialer:  gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:    cfg.From,
		timeout: timeout,
	}
}

// Send dispatches one message, bounded by the configured timeout. A timeout
// is reported as an ordinary error; the caller treats it like any other
// failed dispatch.
func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(s.timeout):
		return fmt.Errorf("smtp dispatch to %s timed out after %s", to, s.timeout)
	}
}
