package dbparser

// State is the decoder's position within a statement document.
type State int

const (
	// SeekingHeader: no statement header seen yet.
	SeekingHeader State = iota
	// BetweenPages: header seen, or a page ended; waiting for a table.
	BetweenPages
	// InTable: inside a booking table, no entry open.
	InTable
	// InEntry: inside a booking table with an open entry.
	InEntry
)

func (s State) String() string {
	switch s {
	case SeekingHeader:
		return "seeking_header"
	case BetweenPages:
		return "between_pages"
	case InTable:
		return "in_table"
	case InEntry:
		return "in_entry"
	default:
		return "unknown"
	}
}

// Action is the side effect the decoder performs for one transition.
type Action int

const (
	// ActionNone leaves the booking untouched.
	ActionNone Action = iota
	// ActionStartBooking creates the Booking from the header captures.
	ActionStartBooking
	// ActionFlush moves the open entry, if any, into the Booking.
	ActionFlush
	// ActionOpenEntry flushes the open entry and opens a new one.
	ActionOpenEntry
	// ActionAppendText extends the open entry's description.
	ActionAppendText
	// ActionFinish flushes the open entry and stops decoding.
	ActionFinish
)

func (a Action) String() string {
	switch a {
	case ActionStartBooking:
		return "start_booking"
	case ActionFlush:
		return "flush"
	case ActionOpenEntry:
		return "open_entry"
	case ActionAppendText:
		return "append_text"
	case ActionFinish:
		return "finish"
	default:
		return "none"
	}
}

// Step is the decoder's transition function. Rules are evaluated in this
// order:
//
//	SeekingHeader + Header                 -> BetweenPages, start booking
//	BetweenPages|InTable|InEntry + PageBreak  -> BetweenPages, flush
//	BetweenPages|InTable|InEntry + TableStart -> InTable, flush
//	InTable|InEntry + EntryStart           -> InEntry, open entry
//	InEntry + StatementEnd                 -> finish
//	InEntry + non-blank other line         -> InEntry, append text
//
// Every other combination keeps the state and does nothing.
func Step(state State, line ClassifiedLine) (State, Action) {
	afterHeader := state == BetweenPages || state == InTable || state == InEntry
	inTable := state == InTable || state == InEntry

	switch {
	case state == SeekingHeader && line.Kind == Header:
		return BetweenPages, ActionStartBooking
	case afterHeader && line.Kind == PageBreak:
		return BetweenPages, ActionFlush
	case afterHeader && line.Kind == TableStart:
		return InTable, ActionFlush
	case inTable && line.Kind == EntryStart:
		return InEntry, ActionOpenEntry
	case state == InEntry && line.Kind == StatementEnd:
		return InEntry, ActionFinish
	case state == InEntry && !line.IsBlank():
		return InEntry, ActionAppendText
	}
	return state, ActionNone
}
