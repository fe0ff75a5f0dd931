package session

import "errors"

// Error taxonomy surfaced to callers of the session manager. Anything
// else coming out of a manager operation is a wrapped provider error
// (the request failed or the provider rejected it for another reason).
var (
	// ErrNoDomains means the provider offered no domain to mint an
	// address under.
	ErrNoDomains = errors.New("no domains available")

	// ErrInvalidLocalPart means the candidate local-part failed the
	// local format check. It never reaches the network.
	ErrInvalidLocalPart = errors.New(
		"local part must be non-empty lowercase letters, digits, or dots")

	// ErrAddressTaken means the provider rejected account creation
	// because the address is already in use.
	ErrAddressTaken = errors.New("address already taken")
)
