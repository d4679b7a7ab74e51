package domain

// VerdictKind discriminates validation outcomes.
type VerdictKind string

const (
	VerdictAccepted          VerdictKind = "accepted"
	VerdictRejectedRetryable VerdictKind = "rejected_retryable"
	VerdictRejectedTerminal  VerdictKind = "rejected_terminal"
)

// Rejection reasons. Fabricated citations are always terminal.
const (
	ReasonFabricatedCitation = "fabricated_citation"
	ReasonLength             = "length"
	ReasonUngrounded         = "ungrounded"
	ReasonFormat             = "format"
)

// Verdict is the validator's decision on a draft. Retryable rejections carry
// tightened constraints for the next generation attempt.
type Verdict struct {
	Kind      VerdictKind
	Reason    string
	Tightened *Constraints
}

// Accepted builds an accepting verdict.
func Accepted() Verdict {
	return Verdict{Kind: VerdictAccepted}
}

// RejectedRetryable builds a retryable rejection with tightened constraints.
func RejectedRetryable(reason string, tightened Constraints) Verdict {
	return Verdict{Kind: VerdictRejectedRetryable, Reason: reason, Tightened: &tightened}
}

// RejectedTerminal builds a terminal rejection.
func RejectedTerminal(reason string) Verdict {
	return Verdict{Kind: VerdictRejectedTerminal, Reason: reason}
}
