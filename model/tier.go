package model

// Tier is the level of human oversight an action requires.
type Tier string

const (
	// TierAuto actions are executed immediately.
	TierAuto Tier = "auto"
	// TierButtons actions wait for a human decision.
	TierButtons Tier = "buttons"
)
