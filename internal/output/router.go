package output

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"dbkr/kontoauszug-reader/internal/fileutils"
	"dbkr/kontoauszug-reader/internal/logging"
	"dbkr/kontoauszug-reader/internal/models"
	"dbkr/kontoauszug-reader/internal/parsererror"

	"github.com/spf13/afero"
)

// Mode selects where records go.
type Mode int

const (
	// ModeStream writes every record to one ordered sink.
	ModeStream Mode = iota
	// ModePerDocument writes one file per Booking next to its source.
	ModePerDocument
	// ModePerDate writes one file per booking line into a date tree.
	ModePerDate
)

func (m Mode) String() string {
	switch m {
	case ModePerDocument:
		return "per_document"
	case ModePerDate:
		return "per_date"
	default:
		return "stream"
	}
}

// DateField selects which date of a booking line drives per-date routing.
type DateField string

const (
	DateFieldValue   DateField = "valuta"
	DateFieldBooking DateField = "buchung"
)

// ParseDateField validates a date field name.
func ParseDateField(name string) (DateField, error) {
	switch DateField(name) {
	case DateFieldValue, "":
		return DateFieldValue, nil
	case DateFieldBooking:
		return DateFieldBooking, nil
	}
	return "", &parsererror.ConfigError{
		Option: "date_field",
		Reason: fmt.Sprintf("unknown date field '%s' (valuta, buchung)", name),
	}
}

// Options configures a Router.
type Options struct {
	Mode   Mode
	Format Format
	// OneLine disables JSON pretty printing.
	OneLine bool
	// LineGranularity emits one record per booking line in stream mode.
	LineGranularity bool
	// Overwrite replaces existing records instead of skipping them.
	Overwrite bool
	// BaseDir is the root of the per-date tree.
	BaseDir   string
	DateField DateField
	// MonthOnly stops the per-date tree at the month level.
	MonthOnly    bool
	CSVDelimiter rune
}

// Validate rejects option combinations that make no sense together.
func (o Options) Validate() error {
	switch o.Mode {
	case ModeStream:
		if o.Overwrite {
			return &parsererror.ConfigError{Option: "overwrite", Reason: "only applies to per-document or per-date output"}
		}
	case ModePerDocument:
		if o.LineGranularity {
			return &parsererror.ConfigError{Option: "lines", Reason: "cannot be combined with per-document output"}
		}
	case ModePerDate:
		if o.LineGranularity {
			return &parsererror.ConfigError{Option: "lines", Reason: "cannot be combined with per-date output"}
		}
		if o.BaseDir == "" {
			return &parsererror.ConfigError{Option: "dir", Reason: "per-date output needs a base directory"}
		}
	default:
		return &parsererror.ConfigError{Option: "mode", Reason: fmt.Sprintf("unknown output mode %d", o.Mode)}
	}
	if o.MonthOnly && o.Mode != ModePerDate {
		return &parsererror.ConfigError{Option: "month", Reason: "only applies to per-date output"}
	}
	if _, err := ParseDateField(string(o.DateField)); err != nil {
		return err
	}
	if _, err := ParseFormat(string(o.Format)); err != nil {
		return err
	}
	return nil
}

// Stats counts what a Router actually wrote.
type Stats struct {
	LinesEmitted int
	PathsWritten []string
}

// Add merges other into s.
func (s *Stats) Add(other Stats) {
	s.LinesEmitted += other.LinesEmitted
	s.PathsWritten = append(s.PathsWritten, other.PathsWritten...)
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithOnWrite registers a callback invoked with every path written. It is
// never called for skipped targets, and never concurrently.
func WithOnWrite(fn func(path string)) RouterOption {
	return func(r *Router) {
		r.onWrite = fn
	}
}

// Router delivers Bookings according to its Options. Route may be called
// from several goroutines; stream records are written in call order.
type Router struct {
	fs      afero.Fs
	opts    Options
	logger  logging.Logger
	onWrite func(path string)

	mu     sync.Mutex
	stream *recordWriter
	stats  Stats
}

// NewRouter validates opts and creates a Router. sink is only used in
// stream mode.
func NewRouter(fs afero.Fs, sink io.Writer, opts Options, logger logging.Logger, options ...RouterOption) (*Router, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	format, _ := ParseFormat(string(opts.Format))
	opts.Format = format
	dateField, _ := ParseDateField(string(opts.DateField))
	opts.DateField = dateField

	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	r := &Router{
		fs:     fs,
		opts:   opts,
		logger: logger.WithFields(logging.F(logging.FieldMode, opts.Mode.String()), logging.F(logging.FieldFormat, string(opts.Format))),
	}
	if opts.Mode == ModeStream {
		if sink == nil {
			return nil, &parsererror.ConfigError{Option: "output", Reason: "stream output needs a sink"}
		}
		r.stream = newRecordWriter(sink, opts.Format, opts.OneLine, opts.CSVDelimiter)
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Options returns the normalized options.
func (r *Router) Options() Options {
	return r.opts
}

// Route delivers one Booking and returns what this call wrote.
func (r *Router) Route(b *models.Booking) (Stats, error) {
	if b == nil {
		return Stats{}, nil
	}

	var (
		stats Stats
		err   error
	)
	switch r.opts.Mode {
	case ModePerDocument:
		stats, err = r.routePerDocument(b)
	case ModePerDate:
		stats, err = r.routePerDate(b)
	default:
		stats, err = r.routeStream(b)
	}

	r.mu.Lock()
	r.stats.Add(stats)
	r.mu.Unlock()
	return stats, err
}

// Stats returns the totals over all Route calls.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := make([]string, len(r.stats.PathsWritten))
	copy(paths, r.stats.PathsWritten)
	return Stats{LinesEmitted: r.stats.LinesEmitted, PathsWritten: paths}
}

// Close finishes the stream sink's framing.
func (r *Router) Close() error {
	if r.stream == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream.Close()
}

func (r *Router) routeStream(b *models.Booking) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.opts.LineGranularity {
		if err := r.stream.WriteBooking(b); err != nil {
			return Stats{}, err
		}
		return Stats{LinesEmitted: len(b.Lines)}, nil
	}

	name := b.SourceName()
	for i, line := range b.Lines {
		if err := r.stream.WriteLine(line.WithProvenance(name, i)); err != nil {
			return Stats{LinesEmitted: i}, err
		}
	}
	return Stats{LinesEmitted: len(b.Lines)}, nil
}

// DocumentPath is where per-document mode puts a Booking's record.
func (r *Router) DocumentPath(b *models.Booking) string {
	return filepath.Join(filepath.Dir(b.SourceID), b.SourceStem()+r.opts.Format.Extension())
}

func (r *Router) routePerDocument(b *models.Booking) (Stats, error) {
	path := r.DocumentPath(b)
	written, err := r.writeFile(path, func(rw *recordWriter) error {
		return rw.WriteBooking(b)
	})
	if err != nil || !written {
		return Stats{}, err
	}
	return Stats{LinesEmitted: len(b.Lines), PathsWritten: []string{path}}, nil
}

// LinePath is where per-date mode puts a line whose selected date is date
// and whose sequence number within its run of equal dates is seq.
func (r *Router) LinePath(date models.Date, seq int) string {
	dir := filepath.Join(r.opts.BaseDir, date.YearString(), date.MonthString())
	if !r.opts.MonthOnly {
		dir = filepath.Join(dir, date.DayString())
	}
	name := fmt.Sprintf("%s-%s-%s-%08d%s",
		date.YearString(), date.MonthString(), date.DayString(), seq, r.opts.Format.Extension())
	return filepath.Join(dir, name)
}

func (r *Router) routePerDate(b *models.Booking) (Stats, error) {
	var stats Stats
	useBookingDate := r.opts.DateField == DateFieldBooking
	name := b.SourceName()

	var lastDate models.Date
	seq := 0
	for i, line := range b.Lines {
		date := line.DateFor(useBookingDate)
		if seq == 0 || !date.Equal(lastDate) {
			lastDate = date
			seq = 0
		}
		seq++

		path := r.LinePath(date, seq)
		record := line.WithProvenance(name, i)
		written, err := r.writeFile(path, func(rw *recordWriter) error {
			return rw.WriteLine(record)
		})
		if err != nil {
			return stats, err
		}
		if written {
			stats.LinesEmitted++
			stats.PathsWritten = append(stats.PathsWritten, path)
		}
	}
	return stats, nil
}

// writeFile writes one record file and reports whether it was written. An
// existing target without overwrite is skipped, not an error.
func (r *Router) writeFile(path string, write func(*recordWriter) error) (bool, error) {
	err := fileutils.WriteFile(r.fs, path, r.opts.Overwrite, func(w io.Writer) error {
		rw := newRecordWriter(w, r.opts.Format, r.opts.OneLine, r.opts.CSVDelimiter)
		if err := write(rw); err != nil {
			return err
		}
		return rw.Close()
	})
	if errors.Is(err, fileutils.ErrExists) {
		r.logger.Debug("Skipping existing record", logging.F(logging.FieldOutputFile, path))
		return false, nil
	}
	if err != nil {
		r.logger.WithError(err).Error("Failed to write record", logging.F(logging.FieldOutputFile, path))
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}

	r.logger.Debug("Wrote record", logging.F(logging.FieldOutputFile, path))
	if r.onWrite != nil {
		r.mu.Lock()
		r.onWrite(path)
		r.mu.Unlock()
	}
	return true, nil
}
