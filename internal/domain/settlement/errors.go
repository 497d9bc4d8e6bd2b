package settlement

import "errors"

var (
	ErrUnknownDecision        = errors.New("unknown dispute decision")
	ErrRefundAmountRequired   = errors.New("refund amount is required for partial refund")
	ErrRefundAmountOutOfRange = errors.New("refund amount out of range")
	ErrSplitSessionCredit     = errors.New("cannot split a session credit")
	ErrNoFundingToSplit       = errors.New("appointment has no payment to split")
	ErrUnbalancedPlan         = errors.New("settlement plan does not conserve the original amount")
)
