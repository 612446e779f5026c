package dtos

// MailMessage is what the mail source returns for a single message id.
type MailMessage struct {
	ID      string
	Sender  string
	Subject string
	Date    string // raw Date header
	Snippet string
}

// InboundEvent is a fetched email, ready for reconciliation.
type InboundEvent struct {
	MessageID string
	Sender    string
	Subject   string
	Snippet   string
	RawDate   string
}

// EventFromMessage maps a fetched message onto an event. Missing headers are
// left empty.
func EventFromMessage(m MailMessage) InboundEvent {
	return InboundEvent{
		MessageID: m.ID,
		Sender:    m.Sender,
		Subject:   m.Subject,
		Snippet:   m.Snippet,
		RawDate:   m.Date,
	}
}
