package publish

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"subject-feed/src/subjects"
)

var (
	ErrEmptyContent    = errors.New("message content cannot be empty")
	ErrContentTooLong  = fmt.Errorf("message content cannot exceed %d characters", MaxContentLength)
	ErrDeliveryFailed  = errors.New("failed to publish message")
	ErrMissingIdentity = errors.New("missing user identity")
)

// IsValidation reports whether err is a caller mistake rather than a delivery problem.
func IsValidation(err error) bool {
	return errors.Is(err, subjects.ErrInvalidSubject) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrContentTooLong) ||
		errors.Is(err, ErrMissingIdentity)
}

// translate maps the first failed validation rule onto the package's sentinel errors.
// Fields are checked in declaration order, so subject errors win over content errors.
func translate(req request, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	switch fe.Field() {
	case "Subject":
		_, perr := subjects.Parse(req.Subject)
		return perr
	case "Content":
		if fe.Tag() == "max" {
			return ErrContentTooLong
		}
		return ErrEmptyContent
	default:
		return ErrMissingIdentity
	}
}
