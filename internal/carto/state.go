package carto

// State is a step of a single resolution.
type State int

const (
	StateParsing State = iota
	StateValidating
	StateByName
	StateByConfig
	StateInstantiating
	StateBuildingTemplate
	StateDelegating
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateParsing:          "parsing",
	StateValidating:       "validating",
	StateByName:           "by-name",
	StateByConfig:         "by-config",
	StateInstantiating:    "instantiating",
	StateBuildingTemplate: "building-template",
	StateDelegating:       "delegating",
	StateDone:             "done",
	StateFailed:           "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
