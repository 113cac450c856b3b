package service

import (
	"fmt"

	"civic_reporter/internal/model"
	"civic_reporter/internal/xerrors"
)

// progress orders the non-spam statuses. Spam is outside the order.
var progress = map[model.Status]int{
	model.StatusReported:   0,
	model.StatusInProgress: 1,
	model.StatusResolved:   2,
}

// CheckTransition reports whether an issue may move from one status to
// another. Progress only moves forward, skips included; any non-spam status
// may be marked spam, and spam is terminal.
func CheckTransition(from, to model.Status) error {
	if !to.Valid() {
		return xerrors.Validation("unknown status %q", to)
	}
	if from == model.StatusSpam {
		return invalidTransition(from, to)
	}
	if to == model.StatusSpam {
		return nil
	}
	fromRank, ok := progress[from]
	if !ok {
		return invalidTransition(from, to)
	}
	if progress[to] <= fromRank {
		return invalidTransition(from, to)
	}
	return nil
}

func invalidTransition(from, to model.Status) error {
	return xerrors.New(xerrors.KindInvalidTransition, fmt.Sprintf("cannot change status from %s to %s", from, to))
}
