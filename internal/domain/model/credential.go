package model

import (
	validation "github.com/jellydator/validation"
	"github.com/jellydator/validation/is"
)

// Credentials is an OAuth app registration supplied by the caller. The vault
// never persists it.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Validate ensures the registration is complete enough for a token grant.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ClientID, validation.Required.Error("client id is required")),
		validation.Field(&c.ClientSecret, validation.Required.Error("client secret is required")),
		validation.Field(&c.RedirectURI, validation.Required.Error("redirect uri is required"), is.URL),
	)
}
