package domain

import (
	"sort"
	"strings"
)

// SignalFunction is the Signal_Funktion of a signal
type SignalFunction string

const (
	SignalFunctionEntry        SignalFunction = "Einfahr_Signal"
	SignalFunctionExit         SignalFunction = "Ausfahr_Signal"
	SignalFunctionIntermediate SignalFunction = "Zwischen_Signal"
	SignalFunctionBlock        SignalFunction = "Block_Signal"
	SignalFunctionUndefined    SignalFunction = "Nicht_Definiert"
)

var supportedFunctions = map[SignalFunction]struct{}{
	SignalFunctionEntry:        {},
	SignalFunctionExit:         {},
	SignalFunctionIntermediate: {},
	SignalFunctionBlock:        {},
	SignalFunctionUndefined:    {},
}

// Supported reports whether the importer can attach signals of this function.
func (f SignalFunction) Supported() bool {
	_, ok := supportedFunctions[f]
	return ok
}

// SignalKind is the Signal_Art of the signal screen
type SignalKind string

const (
	SignalKindMain         SignalKind = "Hauptsignal"
	SignalKindMultiSection SignalKind = "Mehrabschnittssignal"
	SignalKindDistant      SignalKind = "Vorsignal"
	SignalKindShunting     SignalKind = "Sperrsignal"
	SignalKindMainShunting SignalKind = "Hauptsperrsignal"
	SignalKindOther        SignalKind = "andere"
	SignalKindFictional    SignalKind = "FiktivesSignal"
)

// SignalSystem is the Signalsystem of the screen
type SignalSystem string

const (
	SignalSystemKs    SignalSystem = "Ks"
	SignalSystemHl    SignalSystem = "Hl"
	SignalSystemHV    SignalSystem = "HV"
	SignalSystemSV    SignalSystem = "SV"
	SignalSystemOther SignalSystem = "andere"
)

// SignalDirection is the Wirkrichtung relative to the edge direction A->B
type SignalDirection string

const (
	DirectionIn      SignalDirection = "in"
	DirectionAgainst SignalDirection = "gegen"
	DirectionBoth    SignalDirection = "beide"
)

// SignalState is one aspect a signal can show
type SignalState string

const (
	StateHp0 SignalState = "hp0"
	StateHp1 SignalState = "hp1"
	StateHp2 SignalState = "hp2"
	StateKs1 SignalState = "ks1"
	StateKs2 SignalState = "ks2"
	StateSh1 SignalState = "sh1"
	StateZs1 SignalState = "zs1"
	StateZs7 SignalState = "zs7"
	StateVr0 SignalState = "vr0"
	StateVr1 SignalState = "vr1"
	StateVr2 SignalState = "vr2"
)

var knownStates = map[SignalState]struct{}{
	StateHp0: {}, StateHp1: {}, StateHp2: {},
	StateKs1: {}, StateKs2: {},
	StateSh1: {},
	StateZs1: {}, StateZs7: {},
	StateVr0: {}, StateVr1: {}, StateVr2: {},
}

var stateReplacer = strings.NewReplacer(" ", "", "_", "", "-", "", ".", "")

// ParseSignalState maps a signal term text like "Hp 0" or "Ks_1" to a state.
func ParseSignalState(text string) (SignalState, bool) {
	s := SignalState(stateReplacer.Replace(strings.ToLower(strings.TrimSpace(text))))
	if _, ok := knownStates[s]; !ok {
		return "", false
	}
	return s, true
}

// SortStates orders states for stable output.
func SortStates(states []SignalState) {
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
}

// Signal is a signal attached to exactly one edge
type Signal struct {
	ID              string          `json:"id" msgpack:"id"`
	Name            string          `json:"name" msgpack:"name"`
	Function        SignalFunction  `json:"function" msgpack:"function"`
	Kind            SignalKind      `json:"kind" msgpack:"kind"`
	System          SignalSystem    `json:"system" msgpack:"system"`
	EdgeID          string          `json:"edge_id" msgpack:"edge"`
	Direction       SignalDirection `json:"direction" msgpack:"direction"`
	SideDistance    float64         `json:"side_distance" msgpack:"side_distance"`
	DistanceEdge    float64         `json:"distance_edge" msgpack:"distance_edge"`
	SupportedStates []SignalState   `json:"supported_states" msgpack:"states"`
}

// Supports reports whether the signal can show state.
func (s *Signal) Supports(state SignalState) bool {
	for _, st := range s.SupportedStates {
		if st == state {
			return true
		}
	}
	return false
}
