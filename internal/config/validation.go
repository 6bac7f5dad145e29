package config

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ErrNoHost is returned by ValidateHosts when neither the Telegram nor the HTTP host is configured.
var ErrNoHost = errors.New("no event host enabled: set telegram.token or http.listen_addr")

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// ValidateHosts checks that the service has at least one source of events.
// It is separate from Validate because the validate-config command accepts
// configurations meant to be embedded without a host.
func (c *Config) ValidateHosts() error {
	if !c.Telegram.Enabled() && !c.HTTP.Enabled() {
		return ErrNoHost
	}
	return nil
}
