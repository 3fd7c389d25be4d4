package domain

// Template is the message loaded once per run. It is not modified after loading.
type Template struct {
	Subject        string
	Body           string
	AttachmentPath string
}

// Message is a Template addressed to one recipient.
type Message struct {
	To             Address
	Subject        string
	Body           string
	AttachmentPath string
}

// Render addresses the template to a single recipient.
func (t Template) Render(to Address) Message {
	return Message{
		To:             to,
		Subject:        t.Subject,
		Body:           t.Body,
		AttachmentPath: t.AttachmentPath,
	}
}
