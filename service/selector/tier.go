package selector

import "github.com/viant/crier/model"

var autoTypes = map[model.ActionType]bool{
	model.ActionTypeLike:         true,
	model.ActionTypeRepost:       true,
	model.ActionTypeFollow:       true,
	model.ActionTypeOriginalPost: true,
}

var autoPlatforms = map[model.Platform]bool{
	model.PlatformTwitter: true,
	model.PlatformBluesky: true,
}

// EscalationTier returns the oversight tier for an action type on a platform.
// Curated shares always need a human.
func EscalationTier(actionType model.ActionType, platform model.Platform) model.Tier {
	if actionType == model.ActionTypeCuratedShare {
		return model.TierButtons
	}
	if autoTypes[actionType] && autoPlatforms[platform] {
		return model.TierAuto
	}
	return model.TierButtons
}
