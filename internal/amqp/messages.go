package amqp

import (
	"encoding/json"
	"time"
)

// EmailMessage is a rendered email waiting to be delivered by the notify worker.
type EmailMessage struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	HTML      string    `json:"html"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEmailMessage stamps a message with the current time.
func NewEmailMessage(to, subject, html, typ string) *EmailMessage {
	return &EmailMessage{
		To:        to,
		Subject:   subject,
		HTML:      html,
		Type:      typ,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EmailMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EmailMessageFromJSON creates a message from JSON bytes
func EmailMessageFromJSON(data []byte) (*EmailMessage, error) {
	var msg EmailMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
