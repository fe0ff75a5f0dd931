package provider

import (
	"time"

	"github.com/ifconcept/gvail/internal/model"
)

// Account is the provider's representation of a mailbox account as
// returned by POST /accounts.
type Account struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Quota     int       `json:"quota"`
	Used      int       `json:"used"`
	CreatedAt time.Time `json:"createdAt"`
}

// credentials is the request body for account creation and token minting.
type credentials struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// tokenResponse is the body of a successful POST /token.
type tokenResponse struct {
	Token string `json:"token"`
}

// domainCollection unwraps the hydra collection envelope on GET /domains.
type domainCollection struct {
	Members []model.Domain `json:"hydra:member"`
}

// messageCollection unwraps the hydra collection envelope on GET /messages.
type messageCollection struct {
	Members []model.Message `json:"hydra:member"`
}

// errorBody is the generic error contract for non-2xx responses other
// than 401: a JSON body with a human-readable message or detail field.
type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`

	// API-platform style fields used by some provider deployments.
	HydraTitle       string `json:"hydra:title"`
	HydraDescription string `json:"hydra:description"`
}

// text returns the most specific human-readable message available.
func (e errorBody) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Detail != "":
		return e.Detail
	case e.HydraDescription != "":
		return e.HydraDescription
	case e.HydraTitle != "":
		return e.HydraTitle
	}
	return ""
}
