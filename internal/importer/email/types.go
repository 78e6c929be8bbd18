package email

import "time"

// Envelope holds the parsed envelope data from an IMAP message.
type Envelope struct {
	MessageID string
	Subject   string
	From      string
	Date      time.Time
	UID       uint32
}

// Message holds the envelope and plain-text body of a fetched message.
type Message struct {
	Envelope Envelope
	TextBody string
}
