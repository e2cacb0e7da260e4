package checkout

// Stage is a step of the checkout. Stages are strictly sequential.
type Stage int

const (
	StageShipping Stage = iota
	StagePayment
	StageReview
	StageConfirmation
)

var stageNames = [...]string{
	StageShipping:     "shipping",
	StagePayment:      "payment",
	StageReview:       "review",
	StageConfirmation: "confirmation",
}

func (s Stage) String() string {
	if s < StageShipping || s > StageConfirmation {
		return "unknown"
	}
	return stageNames[s]
}

// Step is the 1-based position shown to the shopper.
func (s Stage) Step() int {
	return int(s) + 1
}

func (s Stage) IsTerminal() bool {
	return s == StageConfirmation
}
