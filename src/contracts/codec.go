package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedMessage is returned by Decode for payloads that are not a complete PublishedMessage.
var ErrMalformedMessage = errors.New("malformed message")

// wireMessage mirrors PublishedMessage with pointer fields so absent keys can be told apart from empty ones.
type wireMessage struct {
	ID        *string `json:"id"`
	UserID    *string `json:"userId"`
	Username  *string `json:"username"`
	Content   *string `json:"content"`
	Timestamp *string `json:"timestamp"`
}

// Encode serializes msg to its JSON wire form.
func Encode(msg PublishedMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
	}
	return data, nil
}

// Decode parses a wire payload. Every field must be present; unknown fields are ignored.
func Decode(data []byte) (PublishedMessage, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return PublishedMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	missing := func(name string) error {
		return fmt.Errorf("%w: missing field %q", ErrMalformedMessage, name)
	}
	switch {
	case w.ID == nil:
		return PublishedMessage{}, missing("id")
	case w.UserID == nil:
		return PublishedMessage{}, missing("userId")
	case w.Username == nil:
		return PublishedMessage{}, missing("username")
	case w.Content == nil:
		return PublishedMessage{}, missing("content")
	case w.Timestamp == nil:
		return PublishedMessage{}, missing("timestamp")
	}

	return PublishedMessage{
		ID:        *w.ID,
		UserID:    *w.UserID,
		Username:  *w.Username,
		Content:   *w.Content,
		Timestamp: *w.Timestamp,
	}, nil
}
