// Package recovery holds the escalating action sequences dispatched
// when navigation detects an oscillation loop.
package recovery

// #region kinds

// ActionKind is the low-level operation a dispatcher performs.
type ActionKind string

const (
	KindPressKey       ActionKind = "press_key"
	KindClick          ActionKind = "click"
	KindActivateWindow ActionKind = "activate_window"
)

// #endregion kinds

// #region action

// Action is one dispatchable step of a recovery sequence.
type Action struct {
	Kind ActionKind `yaml:"kind" json:"kind"`
	Key  string     `yaml:"key,omitempty" json:"key,omitempty"`
	X    int        `yaml:"x,omitempty" json:"x,omitempty"`
	Y    int        `yaml:"y,omitempty" json:"y,omitempty"`
}

// PressKey builds a key-press action.
func PressKey(key string) Action {
	return Action{Kind: KindPressKey, Key: key}
}

// Click builds a click action at viewport coordinates.
func Click(x, y int) Action {
	return Action{Kind: KindClick, X: x, Y: y}
}

// ActivateWindow builds a focus-restoration action.
func ActivateWindow() Action {
	return Action{Kind: KindActivateWindow}
}

// #endregion action

// #region tiers

// DefaultTierSequences returns the stock escalation ladder, mildest
// first. Tier 0 is a single dismissal keypress; tier 4 is the full
// reset: refocus, flush any stacked dialogs, and return to a known
// root screen.
func DefaultTierSequences() [][]Action {
	return [][]Action{
		// tier 0: dismiss whatever overlay is on top
		{PressKey("Escape")},
		// tier 1: the window may have lost focus before the dismissal
		{ActivateWindow(), PressKey("Escape")},
		// tier 2: walk out of nested dialogs
		{PressKey("Escape"), PressKey("Enter"), PressKey("Escape"), PressKey("Space")},
		// tier 3: restore the window and re-anchor with a neutral click
		{ActivateWindow(), Click(10, 10), PressKey("Escape")},
		// tier 4: full reset back to the root screen
		{ActivateWindow(), PressKey("Escape"), PressKey("Escape"), PressKey("Escape"), PressKey("Enter")},
	}
}

// #endregion tiers
