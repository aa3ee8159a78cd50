package services

import "errors"

// Ошибки бизнес-логики. Хендлеры сопоставляют их с HTTP-статусами.
var (
	ErrTournamentNotFound                = errors.New("tournament not found")
	ErrTournamentNameRequired            = errors.New("tournament name is required")
	ErrTournamentInvalidCapacity         = errors.New("max participants must be at least 2")
	ErrTournamentInvalidType             = errors.New("invalid tournament type")
	ErrTournamentInvalidStatus           = errors.New("invalid tournament status")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrTournamentStartDateRequired       = errors.New("tournament start date is required")

	ErrRegistrationNotFound = errors.New("registration not found")
	ErrRegistrationConflict = errors.New("already registered for this tournament")
	ErrRegistrationClosed   = errors.New("registration for this tournament is closed")
	ErrTournamentFull       = errors.New("tournament has no free slots")

	ErrServerNotFound        = errors.New("server not found")
	ErrServerNameRequired    = errors.New("server name is required")
	ErrServerAddressRequired = errors.New("server address is required")

	ErrUploadsDisabled = errors.New("file uploads are not configured")
)
