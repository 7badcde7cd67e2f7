// Package queue defines message payloads exchanged over the message broker.
package queue

// EmailQueueName is the durable queue carrying outbound email requests.
const EmailQueueName = "email.requested"

// Kinds of email the application asks for.
const (
	EmailWelcome      = "welcome"
	EmailVerification = "verification"
)

// EmailRequestedEvent asks a downstream mailer to send one email.  It holds
// everything the mailer needs so it never reads the primary database.
type EmailRequestedEvent struct {
	Kind        string `json:"kind"`
	To          string `json:"to"`
	Username    string `json:"username"`
	Code        string `json:"code,omitempty"` // verification emails only
	RequestedAt string `json:"requested_at"`
}
