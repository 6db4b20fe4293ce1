package model

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to ChargeStatus
		want     bool
	}{
		{ChargeStatusPending, ChargeStatusOverdue, true},
		{ChargeStatusPending, ChargeStatusPaid, true},
		{ChargeStatusPending, ChargeStatusCancelled, true},
		{ChargeStatusOverdue, ChargeStatusPaid, true},
		{ChargeStatusOverdue, ChargeStatusCancelled, true},
		{ChargeStatusOverdue, ChargeStatusPending, false},
		{ChargeStatusPaid, ChargeStatusPending, false},
		{ChargeStatusPaid, ChargeStatusOverdue, false},
		{ChargeStatusPaid, ChargeStatusCancelled, false},
		{ChargeStatusCancelled, ChargeStatusPaid, false},
		{ChargeStatusPaid, ChargeStatusPaid, true},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestApplyTransition(t *testing.T) {
	now := time.Date(2025, 11, 12, 10, 0, 0, 0, time.UTC)

	charge := &Charge{Status: ChargeStatusPending}
	if err := ApplyTransition(charge, ChargeStatusOverdue, now); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if charge.Status != ChargeStatusOverdue {
		t.Fatalf("expected status OVERDUE, got %s", charge.Status)
	}

	if err := ApplyTransition(charge, ChargeStatusPaid, now); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if charge.PaidAt == nil || !charge.PaidAt.Equal(now) {
		t.Fatalf("expected PaidAt stamped with %v, got %v", now, charge.PaidAt)
	}

	if err := ApplyTransition(charge, ChargeStatusPending, now); err == nil {
		t.Fatalf("expected transition out of PAID to fail")
	}
	if charge.Status != ChargeStatusPaid {
		t.Fatalf("failed transition must not mutate status, got %s", charge.Status)
	}
}
