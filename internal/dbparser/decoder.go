package dbparser

import (
	"bufio"
	"fmt"
	"io"

	"dbkr/kontoauszug-reader/internal/currencyutils"
	"dbkr/kontoauszug-reader/internal/dateutils"
	"dbkr/kontoauszug-reader/internal/logging"
	"dbkr/kontoauszug-reader/internal/models"
)

// Decoder turns the reading-order lines of one statement document into a
// Booking. A Decoder holds no per-document state and may be shared between
// goroutines.
type Decoder struct {
	logger logging.Logger
	strict bool
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithStrict makes the decoder keep an entry that is still open when the
// input ends without a StatementEnd marker. By default such an entry is
// dropped.
func WithStrict(strict bool) Option {
	return func(d *Decoder) {
		d.strict = strict
	}
}

// NewDecoder creates a Decoder. A nil logger discards log output.
func NewDecoder(logger logging.Logger, opts ...Option) *Decoder {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	d := &Decoder{logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Strict reports whether the decoder flushes an open entry at end of input.
func (d *Decoder) Strict() bool {
	return d.strict
}

// Decode decodes a complete line sequence. It returns nil when the lines
// contain no statement header.
func (d *Decoder) Decode(sourceID string, lines []string) *models.Booking {
	s := d.newSession(sourceID)
	for _, line := range lines {
		if s.feed(line) {
			break
		}
	}
	return s.result()
}

// DecodeReader decodes newline-separated text read from r.
func (d *Decoder) DecodeReader(sourceID string, r io.Reader) (*models.Booking, error) {
	s := d.newSession(sourceID)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if s.feed(scanner.Text()) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statement text: %w", err)
	}
	return s.result(), nil
}

// session is the mutable state of decoding one document.
type session struct {
	decoder  *Decoder
	logger   logging.Logger
	sourceID string

	state    State
	lineNo   int
	booking  *models.Booking
	period   dateutils.Period
	current  *models.BookingLine
	finished bool
}

func (d *Decoder) newSession(sourceID string) *session {
	return &session{
		decoder:  d,
		logger:   d.logger.WithField(logging.FieldSource, sourceID),
		sourceID: sourceID,
		state:    SeekingHeader,
	}
}

// feed processes one line and reports whether decoding has stopped.
func (s *session) feed(raw string) bool {
	s.lineNo++
	line := Classify(raw)

	next, action := Step(s.state, line)
	switch action {
	case ActionStartBooking:
		if !s.startBooking(line) {
			next, action = Step(s.state, line.AsPlainText())
		}
	case ActionOpenEntry:
		entry, ok := s.openEntry(line)
		if !ok {
			next, action = Step(s.state, line.AsPlainText())
			break
		}
		s.flush()
		s.current = entry
	}

	switch action {
	case ActionFlush:
		s.flush()
	case ActionAppendText:
		s.current.AppendText(line.Text)
	case ActionFinish:
		s.flush()
		s.finished = true
	}

	if next != s.state {
		s.logger.Debug("Decoder state change",
			logging.F(logging.FieldLineNumber, s.lineNo),
			logging.F(logging.FieldState, s.state.String()),
			logging.F(logging.FieldNextState, next.String()))
	}
	s.state = next
	return s.finished
}

func (s *session) startBooking(line ClassifiedLine) bool {
	from, errFrom := models.ParseDate(line.Header.PeriodFrom)
	to, errTo := models.ParseDate(line.Header.PeriodTo)
	if errFrom != nil || errTo != nil || to.Before(from) {
		s.logger.Warn("Ignoring statement header with unusable period",
			logging.F(logging.FieldLineNumber, s.lineNo),
			logging.F(logging.FieldReason, line.Text))
		return false
	}

	s.booking = &models.Booking{
		SourceID:   s.sourceID,
		PeriodFrom: from,
		PeriodTo:   to,
		Lines:      []models.BookingLine{},
	}
	s.period = dateutils.Period{From: from, To: to}
	return true
}

func (s *session) openEntry(line ClassifiedLine) (*models.BookingLine, bool) {
	entry := line.Entry

	bookingDate, err := s.period.Resolve(entry.BookingDate)
	if err != nil {
		s.logUnusableEntry(err)
		return nil, false
	}
	valueDate, err := s.period.Resolve(entry.ValueDate)
	if err != nil {
		s.logUnusableEntry(err)
		return nil, false
	}
	minor, err := currencyutils.NormalizeAmount(entry.AmountText)
	if err != nil {
		s.logUnusableEntry(err)
		return nil, false
	}

	return &models.BookingLine{
		BookingDate:      bookingDate,
		ValueDate:        valueDate,
		Description:      entry.Description,
		AmountText:       entry.AmountText,
		AmountMinorUnits: minor,
	}, true
}

func (s *session) logUnusableEntry(err error) {
	s.logger.WithError(err).Warn("Booking entry line treated as text",
		logging.F(logging.FieldLineNumber, s.lineNo))
}

func (s *session) flush() {
	if s.current == nil {
		return
	}
	s.booking.Lines = append(s.booking.Lines, *s.current)
	s.current = nil
}

func (s *session) result() *models.Booking {
	if s.booking == nil {
		s.logger.Debug("No statement header found")
		return nil
	}
	if !s.finished && s.current != nil {
		if s.decoder.strict {
			s.flush()
		} else {
			s.logger.Warn("Input ended inside a booking entry, entry dropped",
				logging.F(logging.FieldLineNumber, s.lineNo))
			s.current = nil
		}
	}
	s.logger.Debug("Statement decoded",
		logging.F(logging.FieldCount, len(s.booking.Lines)))
	return s.booking
}
