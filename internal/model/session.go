package model

import "time"

// Session is the locally held identity for the active temporary mailbox.
// A Session is either fully populated or absent; a record missing any of
// the identity fields must never be persisted or adopted.
type Session struct {
	// ID is the provider-assigned account identifier.
	ID string `json:"id"`

	// Address is the full, provider-qualified email address.
	Address string `json:"address"`

	// Password is the generated secret, used only to mint tokens.
	// It is stored in the system keyring, never in the on-disk record.
	Password string `json:"-"`

	// Token is the bearer credential for authenticated provider calls.
	// It may expire; an expired token triggers session rotation.
	Token string `json:"token"`

	// CreatedAt is when the provider-side account was created.
	CreatedAt time.Time `json:"created_at"`
}

// Complete reports whether every identity field is populated.
func (s Session) Complete() bool {
	return s.ID != "" && s.Address != "" && s.Password != "" && s.Token != ""
}
