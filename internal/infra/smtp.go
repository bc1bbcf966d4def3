package infra

import (
	"bytes"
	"errors"
	"fmt"
	"net/smtp"

	"argotelabs/internal/config"

	"github.com/jordan-wright/email"
)

// ErrSMTPNoConfigurado is returned when no SMTP host was configured.
var ErrSMTPNoConfigurado = errors.New("smtp no configurado")

// Mailer sends plain-text notifications with an optional PDF attachment.
type Mailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     fmt.Sprintf("%s <%s>", cfg.LabNombre, cfg.SMTPUser),
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

func (m *Mailer) Configurado() bool { return m != nil && m.host != "" }

// Enviar delivers one message. adjunto may be nil.
func (m *Mailer) Enviar(to, subject, body string, adjunto []byte, nombreAdjunto string) error {
	if !m.Configurado() {
		return ErrSMTPNoConfigurado
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if len(adjunto) > 0 {
		if _, err := e.Attach(bytes.NewReader(adjunto), nombreAdjunto, "application/pdf"); err != nil {
			return fmt.Errorf("mailer: adjuntar PDF: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}
