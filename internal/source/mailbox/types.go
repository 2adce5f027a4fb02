package mailbox

import "time"

// Envelope holds the parsed envelope data from an IMAP message.
type Envelope struct {
	MessageID string
	Subject   string
	From      string
	Date      time.Time
	Flags     []string // \Seen, \Flagged, \Answered, \Deleted
	UID       uint32
}

// Seen reports whether the message carries the \Seen flag.
func (e Envelope) Seen() bool {
	for _, f := range e.Flags {
		if f == `\Seen` {
			return true
		}
	}
	return false
}

// ParsedMessage holds an envelope and the plain-text part of its body.
type ParsedMessage struct {
	Envelope Envelope
	TextBody string
}
