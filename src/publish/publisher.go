// Package publish validates outgoing messages and hands them to the broker.
package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"subject-feed/src/contracts"
	"subject-feed/src/logger"
	"subject-feed/src/subjects"
)

// MaxContentLength is the largest accepted content, in characters, after trimming.
const MaxContentLength = 500

// validatorInstance caches struct information across calls.
var validatorInstance = validator.New()

func init() {
	_ = validatorInstance.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return subjects.IsValid(fl.Field().String())
	})
}

// request is the validated form of a publish call.
type request struct {
	Subject  string `validate:"subject"`
	Content  string `validate:"required,max=500"`
	UserID   string `validate:"required"`
	Username string `validate:"required"`
}

// Sender is the part of the broker the publisher needs.
type Sender interface {
	Publish(ctx context.Context, topic string, key string, value []byte) error
}

// Result is the acknowledgement returned to callers.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Publisher turns user input into PublishedMessages on the subject's topic.
// It is safe for concurrent use.
type Publisher struct {
	sender Sender
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

// NewPublisher creates a publisher that sends through sender.
func NewPublisher(sender Sender, log logger.Logger) *Publisher {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Publisher{
		sender: sender,
		logger: log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Publish validates the input, builds the message, and sends it to the subject's topic.
func (p *Publisher) Publish(ctx context.Context, subject string, rawContent string, principal contracts.Principal) (Result, error) {
	req := request{
		Subject:  subject,
		Content:  strings.TrimSpace(rawContent),
		UserID:   principal.UserID,
		Username: principal.Username,
	}

	if err := validatorInstance.Struct(req); err != nil {
		err = translate(req, err)
		p.logger.Debug("[Publisher] Rejected message for %q: %v", subject, err)
		return Result{}, err
	}

	msg := contracts.PublishedMessage{
		ID:        p.newID(),
		UserID:    principal.UserID,
		Username:  principal.Username,
		Content:   req.Content,
		Timestamp: contracts.FormatTimestamp(p.now()),
	}

	data, err := contracts.Encode(msg)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	if err := p.sender.Publish(ctx, subject, "", data); err != nil {
		p.logger.Error("[Publisher] Failed to publish message %s to %s: %v", msg.ID, subject, err)
		return Result{}, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	p.logger.Debug("[Publisher] Published message %s to %s", msg.ID, subject)
	return Result{
		Success: true,
		Message: fmt.Sprintf("Message published to %s topic", subject),
	}, nil
}
