// Package verification delivers one-time account verification codes over its
// own relay topic, decoupled from chat traffic.
package verification

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidContact = errors.New("contact must be an email address or an E.164 phone number")

var validate = validator.New()

type Publisher interface {
	Publish(ctx context.Context, event any) error
}

type Consumer interface {
	Consume(ctx context.Context) (<-chan []byte, error)
}

// CodeStore keeps issued codes until they expire or are redeemed.
type CodeStore interface {
	SaveVerificationCode(ctx context.Context, contact, code string, ttl time.Duration) error
	ConsumeVerificationCode(ctx context.Context, contact, code string) (bool, error)
}

// Sender delivers a code to whoever has to see it.
type Sender interface {
	SendCode(ctx context.Context, contact, code string) error
}

// Request is the payload of the verification topic.
type Request struct {
	EmailOrPhone string `json:"email_or_phone"`
}

// NormalizeContact trims quotes and whitespace and checks the contact is an
// email address or an E.164 phone number.
func NormalizeContact(contact string) (string, error) {
	contact = strings.Trim(strings.TrimSpace(contact), `"`)
	if validate.Var(contact, "required,email") == nil {
		return strings.ToLower(contact), nil
	}
	if validate.Var(contact, "required,e164") == nil {
		return contact, nil
	}
	return "", ErrInvalidContact
}

// Service is the producer side: it accepts requests and checks codes.
type Service struct {
	Relay Publisher
	Codes CodeStore
}

func NewService(relay Publisher, codes CodeStore) *Service {
	return &Service{Relay: relay, Codes: codes}
}

// Request validates contact and queues a code for it.
func (s *Service) Request(ctx context.Context, contact string) error {
	contact, err := NormalizeContact(contact)
	if err != nil {
		return err
	}
	return s.Relay.Publish(ctx, Request{EmailOrPhone: contact})
}

// Verify redeems code for contact. A code works once.
func (s *Service) Verify(ctx context.Context, contact, code string) (bool, error) {
	contact, err := NormalizeContact(contact)
	if err != nil {
		return false, err
	}
	return s.Codes.ConsumeVerificationCode(ctx, contact, strings.TrimSpace(code))
}

// Worker is the consumer side, one per process.
type Worker struct {
	Consumer Consumer
	Codes    CodeStore
	Sender   Sender
	TTL      time.Duration
}

// Run consumes the verification topic until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	requests, err := w.Consumer.Consume(ctx)
	if err != nil {
		return err
	}
	log.Println("Verification worker started.")
	for payload := range requests {
		if err := w.handle(ctx, payload); err != nil {
			log.Printf("ERROR: Verification request failed: %v", err)
		}
	}
	return ctx.Err()
}

func (w *Worker) handle(ctx context.Context, payload []byte) error {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	contact, err := NormalizeContact(req.EmailOrPhone)
	if err != nil {
		return err
	}

	code, err := GenerateCode()
	if err != nil {
		return err
	}
	if err := w.Codes.SaveVerificationCode(ctx, contact, code, w.TTL); err != nil {
		return fmt.Errorf("store code for %s: %w", contact, err)
	}
	if err := w.Sender.SendCode(ctx, contact, code); err != nil {
		return fmt.Errorf("send code to %s: %w", contact, err)
	}
	return nil
}

// GenerateCode returns a random six digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
