package funcdiff

// State is the position of the hunk scanner relative to a function body.
type State int

const (
	StateOutside State = iota
	StateInsideFunction
)

func (s State) String() string {
	switch s {
	case StateOutside:
		return "outside"
	case StateInsideFunction:
		return "inside-function"
	default:
		return "unknown"
	}
}

// Event classifies a diff line for the scanner.
type Event int

const (
	EventLine Event = iota
	EventDeclaration
	EventOneLineDeclaration
	EventClosingBrace
)

// Action is what the scanner does with the line that produced an event.
type Action int

const (
	ActionIgnore Action = iota
	ActionOpen
	ActionAppend
	ActionAppendAndClose
	ActionEmitOneLine
)

type step struct {
	next   State
	action Action
}

// transitions is the complete scanner table. Declarations seen inside a
// function are treated as body lines, so nested closures belong to the
// enclosing function.
var transitions = map[State]map[Event]step{
	StateOutside: {
		EventLine:               {StateOutside, ActionIgnore},
		EventDeclaration:        {StateInsideFunction, ActionOpen},
		EventOneLineDeclaration: {StateOutside, ActionEmitOneLine},
		EventClosingBrace:       {StateOutside, ActionIgnore},
	},
	StateInsideFunction: {
		EventLine:               {StateInsideFunction, ActionAppend},
		EventDeclaration:        {StateInsideFunction, ActionAppend},
		EventOneLineDeclaration: {StateInsideFunction, ActionAppend},
		EventClosingBrace:       {StateOutside, ActionAppendAndClose},
	},
}

// Transition returns the next state and the action to take for an event.
// Unknown pairs leave the state unchanged and ignore the line.
func Transition(s State, e Event) (State, Action) {
	if row, ok := transitions[s]; ok {
		if st, ok := row[e]; ok {
			return st.next, st.action
		}
	}
	return s, ActionIgnore
}
