package models

// Step is a position in the sign-up wizard.
type Step string

const (
	StepEmail        Step = "email"
	StepTwitter      Step = "twitter"
	StepDiscord      Step = "discord"
	StepConfirmation Step = "confirmation"
)

// Number is the 1-based position shown by step indicators.
func (s Step) Number() int {
	switch s {
	case StepEmail:
		return 1
	case StepTwitter:
		return 2
	case StepDiscord:
		return 3
	case StepConfirmation:
		return 4
	}
	return 0
}

func (s Step) Valid() bool {
	return s.Number() != 0
}
