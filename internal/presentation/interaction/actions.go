package interaction

// Action is what a key press asks the timeline view to do.
type Action int

const (
	ActionNone Action = iota
	ActionZoomIn
	ActionZoomOut
	ActionPanLeft
	ActionPanRight
	ActionReset
	ActionQuit
)

// Zoom factors and the pan step as a share of the visible width.
const (
	ZoomInFactor  = 0.5
	ZoomOutFactor = 2.0
	PanShare      = 0.25
)

// ActionFor maps a key to its action.
func ActionFor(ev KeyEvent) Action {
	switch ev.Type {
	case KeyCtrlC, KeyEscape:
		return ActionQuit
	case KeyArrowUp:
		return ActionZoomIn
	case KeyArrowDown:
		return ActionZoomOut
	case KeyArrowLeft:
		return ActionPanLeft
	case KeyArrowRight:
		return ActionPanRight
	}
	switch ev.Key {
	case '+', '=', 'i':
		return ActionZoomIn
	case '-', '_', 'o':
		return ActionZoomOut
	case 'h', '<', ',':
		return ActionPanLeft
	case 'l', '>', '.':
		return ActionPanRight
	case '0', 'r':
		return ActionReset
	case 'q', 'Q':
		return ActionQuit
	}
	return ActionNone
}

// HelpLine lists the keys understood by ActionFor.
const HelpLine = "+/- zoom  h/l or arrows pan  r reset  q quit"
