package usecase

import "errors"

var (
	// ErrBorrowerRequired is returned when a request carries no borrower ID.
	ErrBorrowerRequired = errors.New("borrower ID is required")
	// ErrConfigurationNotPermitted is returned when the borrower's credit
	// decision does not allow a loan to be configured.
	ErrConfigurationNotPermitted = errors.New("loan configuration not permitted for this borrower")
	// ErrSessionNotFound is returned when no wizard session has been started
	// for the borrower.
	ErrSessionNotFound = errors.New("loan configuration session not found")
)
