package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAppointmentStatus_IsResolvable(t *testing.T) {
	resolvable := map[AppointmentStatus]bool{
		AppointmentStatusDisputed:       true,
		AppointmentStatusInterrupted:    true,
		AppointmentStatusCompleted:      true,
		AppointmentStatusScheduled:      false,
		AppointmentStatusPendingPayment: false,
		AppointmentStatusCancelled:      false,
		AppointmentStatusSettled:        false,
		AppointmentStatusNoShow:         false,
	}
	for status, want := range resolvable {
		if got := status.IsResolvable(); got != want {
			t.Errorf("%s: expected IsResolvable=%v, got %v", status, want, got)
		}
	}
}

func TestAppointmentStatus_CanTransitionTo(t *testing.T) {
	if !AppointmentStatusDisputed.CanTransitionTo(AppointmentStatusSettled) {
		t.Error("expected DISPUTED -> SETTLED to be allowed")
	}
	if !AppointmentStatusInterrupted.CanTransitionTo(AppointmentStatusCancelled) {
		t.Error("expected INTERRUPTED -> CANCELLED to be allowed")
	}
	if AppointmentStatusDisputed.CanTransitionTo(AppointmentStatusScheduled) {
		t.Error("expected DISPUTED -> SCHEDULED to be rejected")
	}
	if AppointmentStatusSettled.CanTransitionTo(AppointmentStatusCancelled) {
		t.Error("expected SETTLED to be terminal")
	}
}

func TestNewDisputeReason(t *testing.T) {
	r, err := NewDisputeReason(" doctor_no_show ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != TerminationReasonDoctorNoShow {
		t.Errorf("expected %s, got %s", TerminationReasonDoctorNoShow, r)
	}

	for _, bad := range []string{"CUSTOMER_CANCELLED_LATE", "PAYMENT_TIMEOUT", "", "WHATEVER"} {
		if _, err := NewDisputeReason(bad); err == nil {
			t.Errorf("expected error for reason %q", bad)
		}
	}
}

func TestNewDisputeDecision(t *testing.T) {
	d, err := NewDisputeDecision("partial_refund")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != DisputeDecisionPartialRefund {
		t.Errorf("expected %s, got %s", DisputeDecisionPartialRefund, d)
	}
	if _, err := NewDisputeDecision("REFUND_ALL"); err == nil {
		t.Error("expected error for unknown decision")
	}
}

func TestFeeRate_Split(t *testing.T) {
	rate, err := NewFeeRate(decimal.RequireFromString("0.25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		base, payout, retained string
	}{
		{"400", "300", "100"},
		{"333.33", "249.99", "83.34"},
		{"0.03", "0.02", "0.01"},
		{"0.01", "0", "0.01"},
	}

	for _, tt := range tests {
		base := decimal.RequireFromString(tt.base)
		payout, retained := rate.Split(base)
		if !payout.Equal(decimal.RequireFromString(tt.payout)) {
			t.Errorf("base %s: expected payout %s, got %s", tt.base, tt.payout, payout)
		}
		if !retained.Equal(decimal.RequireFromString(tt.retained)) {
			t.Errorf("base %s: expected retained %s, got %s", tt.base, tt.retained, retained)
		}
		if fee := base.Mul(rate.Decimal()); retained.LessThan(fee) {
			t.Errorf("base %s: retained %s is below fee %s", tt.base, retained, fee)
		}
	}
}

func TestNewFeeRate_OutOfRange(t *testing.T) {
	for _, bad := range []string{"-0.01", "1.01", "25"} {
		if _, err := NewFeeRate(decimal.RequireFromString(bad)); err == nil {
			t.Errorf("expected error for rate %s", bad)
		}
	}
}
