package model

import (
	"fmt"
	"time"
)

// allowedTransitions is the charge lifecycle as a directed graph.
// PAID and CANCELLED are terminal.
var allowedTransitions = map[ChargeStatus][]ChargeStatus{
	ChargeStatusPending:   {ChargeStatusOverdue, ChargeStatusPaid, ChargeStatusCancelled},
	ChargeStatusOverdue:   {ChargeStatusPaid, ChargeStatusCancelled},
	ChargeStatusPaid:      {},
	ChargeStatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal charge status move.
func CanTransition(from, to ChargeStatus) bool {
	if from == to {
		return true
	}
	allowed, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition is the single mutation point for charge status. It
// rejects illegal moves and maintains the timestamp fields tied to each
// state.
func ApplyTransition(c *Charge, to ChargeStatus, now time.Time) error {
	if c == nil {
		return fmt.Errorf("charge is nil")
	}
	from := c.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid charge status transition: %s -> %s", from, to)
	}

	c.Status = to
	if to == ChargeStatusPaid && c.PaidAt == nil {
		t := now
		c.PaidAt = &t
	}
	return nil
}
