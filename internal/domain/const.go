package domain

// Check names recorded by actors.
const (
	CheckAffiliationCreated = "affiliation created"
	CheckProfileCreated     = "profile created"
	CheckHomeCreated        = "home timeline created"
	CheckTimelineQueried    = "timeline queried"
	CheckTimelinesQueried   = "timelines queried"
	CheckMessageFound       = "message found"
	CheckAssociationCreated = "association created"
	CheckPostCreated        = "post created"
)

// Stage of an actor's lifecycle. Actors only move forward.
type Stage int

const (
	StageInit Stage = iota
	StageRegister
	StageProfile
	StageHome
	StageDiscover
	StageOpen
	StageSubscribe
	StageIterate
	StageTerminal
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageRegister:
		return "register"
	case StageProfile:
		return "profile"
	case StageHome:
		return "home"
	case StageDiscover:
		return "discover"
	case StageOpen:
		return "open"
	case StageSubscribe:
		return "subscribe"
	case StageIterate:
		return "iterate"
	case StageTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}
