package message

import "time"

// HeaderKey represents a message header key.
type HeaderKey string

// Standard header keys
const (
	HeaderContentType   HeaderKey = "content-type"
	HeaderTimestamp     HeaderKey = "timestamp"
	HeaderMessageID     HeaderKey = "message-id"
	HeaderCorrelationID HeaderKey = "correlation-id"
	HeaderReplyTo       HeaderKey = "reply-to"
)

// Headers provides convenience methods for working with message headers.
type Headers map[string]string

// NewHeaders creates a new headers map.
func NewHeaders() Headers {
	return make(Headers)
}

// Set sets a header value.
func (h Headers) Set(key HeaderKey, value string) {
	h[string(key)] = value
}

// Get retrieves a header value.
func (h Headers) Get(key HeaderKey) string {
	return h[string(key)]
}

// Has checks if a header exists.
func (h Headers) Has(key HeaderKey) bool {
	_, exists := h[string(key)]
	return exists
}

// Delete removes a header.
func (h Headers) Delete(key HeaderKey) {
	delete(h, string(key))
}

// SetMessageID sets the message ID header.
func (h Headers) SetMessageID(id string) {
	h.Set(HeaderMessageID, id)
}

// MessageID returns the message ID header.
func (h Headers) MessageID() string {
	return h.Get(HeaderMessageID)
}

// SetCorrelationID sets the correlation ID header.
func (h Headers) SetCorrelationID(id string) {
	h.Set(HeaderCorrelationID, id)
}

// CorrelationID returns the correlation ID header.
func (h Headers) CorrelationID() string {
	return h.Get(HeaderCorrelationID)
}

// SetTimestamp sets the timestamp header in RFC3339 format.
func (h Headers) SetTimestamp(t time.Time) {
	h.Set(HeaderTimestamp, t.Format(time.RFC3339Nano))
}

// Timestamp parses the timestamp header, returning the zero time on failure.
func (h Headers) Timestamp() time.Time {
	t, err := time.Parse(time.RFC3339Nano, h.Get(HeaderTimestamp))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Clone creates a copy of the headers.
func (h Headers) Clone() Headers {
	clone := make(Headers, len(h))
	for k, v := range h {
		clone[k] = v
	}
	return clone
}
