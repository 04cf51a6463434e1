package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownDefaultAuth error if auth.defaultAuth is neither "internal" nor "ldap".
	ErrUnknownDefaultAuth = errors.New("toml config auth.defaultAuth must be \"internal\" or \"ldap\"")

	// ErrLoginAttemptsCanNotBeZero error if auth.loginAttempts is 0.
	ErrLoginAttemptsCanNotBeZero = errors.New("toml config auth.loginAttempts can not be 0")
)
