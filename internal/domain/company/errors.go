package company

import "errors"

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrInvalidTimezone = errors.New("timezone must be a valid IANA zone name")
)
