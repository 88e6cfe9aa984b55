package domain

import "errors"

// Environment errors abort the whole run.
var (
	ErrConverterUnavailable = errors.New("document converter unavailable")
	ErrTemplateMissing      = errors.New("template missing")
	ErrLayoutInvalid        = errors.New("layout invalid for template")
)

// Input errors are recovered per participant in batch mode.
var (
	ErrSurveyUnreadable    = errors.New("survey document unreadable")
	ErrRosterUnreadable    = errors.New("roster unreadable")
	ErrRosterColumnMissing = errors.New("roster column missing")
	ErrParticipantNotFound = errors.New("participant not found in roster")
	ErrInsertEmpty         = errors.New("insert document empty or unreadable")
	ErrInvalidVariant      = errors.New("invalid template variant")
	ErrInvalidMode         = errors.New("invalid mode")
)

// IsEnvironment reports whether err is fatal for the whole run.
func IsEnvironment(err error) bool {
	return errors.Is(err, ErrConverterUnavailable) ||
		errors.Is(err, ErrTemplateMissing) ||
		errors.Is(err, ErrLayoutInvalid)
}

// IsInput reports whether err is caused by the caller's uploads or form
// values.
func IsInput(err error) bool {
	for _, target := range []error{
		ErrSurveyUnreadable, ErrRosterUnreadable, ErrRosterColumnMissing,
		ErrParticipantNotFound, ErrInsertEmpty, ErrInvalidVariant, ErrInvalidMode,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
