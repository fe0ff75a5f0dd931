package model

// ToastKind classifies a transient notification.
type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastSuccess
	ToastError
)

// Toast is a transient, auto-dismissing notification surfaced to the user
// for the outcome of an operation. At most one is shown at a time.
type Toast struct {
	// Message is the human-readable notification text.
	Message string

	// Kind selects the visual treatment.
	Kind ToastKind
}
