package model

import "time"

// Address is a single mailbox participant as reported by the provider.
type Address struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Message is one inbox entry. The listing endpoint returns summaries
// (Intro preview only); fetching a single message fills Text. A detail
// replaces its summary in place without changing identity or position.
type Message struct {
	// ID is the provider-assigned message identifier.
	ID string `json:"id"`

	// From identifies the sender.
	From Address `json:"from"`

	// Subject is the message subject line; may be empty.
	Subject string `json:"subject"`

	// Intro is the short preview text returned by the listing call.
	Intro string `json:"intro"`

	// Seen is the provider-tracked read state as of the latest poll.
	Seen bool `json:"seen"`

	// HasAttachments reports whether the message carries attachments.
	// Attachments themselves are not fetched.
	HasAttachments bool `json:"hasAttachments"`

	// Size is the raw message size in bytes.
	Size int `json:"size"`

	// CreatedAt is the arrival time reported by the provider.
	CreatedAt time.Time `json:"createdAt"`

	// Text is the full plain-text body, present only after the message
	// has been fetched individually.
	Text string `json:"text,omitempty"`

	// HTML holds the body's HTML parts when present. Decoded but not
	// rendered; the plain-text body is what the terminal shows.
	HTML []string `json:"html,omitempty"`
}

// Detailed reports whether the full body has been fetched.
func (m Message) Detailed() bool {
	return m.Text != ""
}

// SenderLabel returns the best display name for the sender.
func (m Message) SenderLabel() string {
	if m.From.Name != "" {
		return m.From.Name
	}
	return m.From.Address
}

// Domain is a provider-offered mailbox suffix. Read-only; cached only as
// long as needed to mint one address.
type Domain struct {
	ID        string    `json:"id"`
	Domain    string    `json:"domain"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
