package errors

import "errors"

var (
	ErrUnknownTenant     = errors.New("tenant registry: unknown tenant")
	ErrInvalidTenant     = errors.New("tenant registry: invalid tenant config")
	ErrDuplicateTenant   = errors.New("tenant registry: duplicate tenant config")
	ErrConfigFileInvalid = errors.New("tenant registry: config file invalid")
)
