package message

import (
	"time"

	"github.com/google/uuid"
)

// Message is the unit of traffic flowing through channels and endpoints.
type Message struct {
	ID      string    `json:"id"`
	Data    []byte    `json:"data"`
	Headers Headers   `json:"headers"`
	Time    time.Time `json:"time"`
}

// New creates a message with a generated ID and the current timestamp.
func New(data []byte) *Message {
	id := uuid.NewString()
	h := NewHeaders()
	h.SetMessageID(id)
	return &Message{
		ID:      id,
		Data:    data,
		Headers: h,
		Time:    time.Now(),
	}
}

// WithHeaders sets the message headers.
func (m *Message) WithHeaders(headers Headers) *Message {
	m.Headers = headers
	return m
}

// WithID sets the message ID.
func (m *Message) WithID(id string) *Message {
	m.ID = id
	m.Headers.SetMessageID(id)
	return m
}

// Clone creates a deep copy of the message.
func (m *Message) Clone() *Message {
	clone := &Message{
		ID:      m.ID,
		Data:    make([]byte, len(m.Data)),
		Headers: m.Headers.Clone(),
		Time:    m.Time,
	}
	copy(clone.Data, m.Data)
	return clone
}
