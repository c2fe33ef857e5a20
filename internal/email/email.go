// email отвечает за исходящую почту: одноразовые коды и приветственные письма.
// Отправка считается best-effort — вызывающий код не блокируется на SMTP
// и не откатывает состояние при неудаче доставки.
package email

import (
	"fmt"
	"time"

	"github.com/go-mail/mail/v2"
)

// Sender — контракт исходящего почтового канала.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type SMTPClient struct {
	dialer *mail.Dialer
	from   string
}

var _ Sender = (*SMTPClient)(nil)

// NewSMTPClient настраивает SMTP-клиент. Политика TLS выбирается по порту:
// 587 — обязательный STARTTLS, 465 — SMTPS, иначе — оппортунистический STARTTLS.
func NewSMTPClient(host string, port int, username, password, from string) *SMTPClient {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 30 * time.Second

	switch port {
	case 587:
		dialer.StartTLSPolicy = mail.MandatoryStartTLS
	case 465:
		dialer.SSL = true
		dialer.StartTLSPolicy = mail.NoStartTLS
	default:
		dialer.StartTLSPolicy = mail.OpportunisticStartTLS
	}

	return &SMTPClient{
		dialer: dialer,
		from:   from,
	}
}

// Send отправляет HTML-письмо с одной попыткой переподключения.
func (s *SMTPClient) Send(to, subject, htmlBody string) error {
	const op = "email.Send"

	msg := mail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		if err = s.dialer.DialAndSend(msg); err == nil {
			return nil
		}

		if attempt < 2 {
			time.Sleep(time.Second)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
