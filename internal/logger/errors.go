package logger

import "errors"

var (
	// ErrServiceNameIsEmpty error if the log config carries no service name.
	ErrServiceNameIsEmpty = errors.New("log config serviceName can not be empty")

	// ErrAppNameIsEmpty error if the log config carries no app name.
	ErrAppNameIsEmpty = errors.New("log config appName can not be empty")
)
