package worker

import (
	"context"
	"encoding/json"
	"errors"

	"argotelabs/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the body of a QueueEmail job.
type EmailJobPayload struct {
	ToEmail       string `json:"to_email"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	Adjunto       []byte `json:"adjunto,omitempty"`
	NombreAdjunto string `json:"nombre_adjunto,omitempty"`
}

// Enviador is satisfied by *infra.Mailer.
type Enviador interface {
	Configurado() bool
	Enviar(to, subject, body string, adjunto []byte, nombreAdjunto string) error
}

// EmailWorker sends notification emails through a circuit breaker so a dead
// SMTP relay fails fast instead of tying up every worker.
type EmailWorker struct {
	mailer Enviador
	cb     *infra.CircuitBreaker
}

func NewEmailWorker(mailer Enviador, cb *infra.CircuitBreaker) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil // not retryable
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}
	if !w.mailer.Configurado() {
		log.Warn().Str("to", payload.ToEmail).Msg("email_worker: SMTP not configured, dropping email")
		return nil
	}

	err := w.cb.Execute(func() error {
		return w.mailer.Enviar(payload.ToEmail, payload.Subject, payload.Body, payload.Adjunto, payload.NombreAdjunto)
	})
	if err != nil {
		if errors.Is(err, infra.ErrCircuitOpen) {
			log.Warn().Str("to", payload.ToEmail).Msg("email_worker: circuit open, will retry")
		} else {
			log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		}
		return err
	}
	log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).Msg("email_worker: email sent")
	return nil
}
