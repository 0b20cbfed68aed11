package model

// Platform identifies a social network an action targets.
type Platform string

const (
	PlatformTwitter     Platform = "twitter"
	PlatformBluesky     Platform = "bluesky"
	PlatformReddit      Platform = "reddit"
	PlatformHN          Platform = "hn"
	PlatformDevTo       Platform = "devto"
	PlatformProductHunt Platform = "producthunt"
)

// DefaultCharLimit applies to platforms without an explicit limit.
const DefaultCharLimit = 280

var charLimits = map[Platform]int{
	PlatformTwitter: 280,
	PlatformBluesky: 300,
	PlatformReddit:  10000,
	PlatformHN:      10000,
	PlatformDevTo:   50000,
}

// CharLimit returns the maximum post length accepted by the platform.
func (p Platform) CharLimit() int {
	if limit, ok := charLimits[p]; ok {
		return limit
	}
	return DefaultCharLimit
}

func (p Platform) String() string { return string(p) }
