package settle

import (
	"fmt"
	"strings"
)

type ErrorKind string

const (
	ErrMissingAccountant    ErrorKind = "missing_accountant"
	ErrNoPlayers            ErrorKind = "no_players"
	ErrIncompleteEndAmounts ErrorKind = "incomplete_end_amounts"
	ErrPotMismatch          ErrorKind = "pot_mismatch"
)

// ValidationError reports a business-rule violation the user can fix by
// correcting session input. Callers branch on Kind before rendering; the
// extra fields are populated only for the kinds that carry detail.
type ValidationError struct {
	Kind           ErrorKind `json:"kind"`
	MissingPlayers []string  `json:"missing_players,omitempty"`
	TotalPot       float64   `json:"total_pot,omitempty"`
	TotalEntered   float64   `json:"total_entered,omitempty"`
	Difference     float64   `json:"difference,omitempty"`
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrMissingAccountant:
		return "select an accountant before calculating payouts"
	case ErrNoPlayers:
		return "no players in session"
	case ErrIncompleteEndAmounts:
		return fmt.Sprintf("missing end amounts for: %s", strings.Join(e.MissingPlayers, ", "))
	case ErrPotMismatch:
		return fmt.Sprintf("total amount entered (%.2f) does not match total pot (%.2f), difference: %.2f",
			e.TotalEntered, e.TotalPot, e.Difference)
	}
	return string(e.Kind)
}
