package pdfparser

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"dbkr/kontoauszug-reader/internal/fileutils"
	"dbkr/kontoauszug-reader/internal/logging"
	"dbkr/kontoauszug-reader/internal/parsererror"
	"dbkr/kontoauszug-reader/internal/validation"

	"github.com/ledongthuc/pdf"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding/charmap"
)

// Deutsche Bank statements ship ToUnicode maps that turn digits and umlauts
// into garbage. The extractor therefore ignores font encodings altogether
// and reads every shown string as Windows-1252, which is what the embedded
// simple fonts actually use.

// Average glyph width in thousandths of an em, used to estimate where a
// string ends without loading font metrics.
const averageGlyphWidth = 500

// TJ adjustments below this (in thousandths of an em) are treated as a word
// space.
const tjSpaceThreshold = -200

// Form XObjects may nest; deeper nesting is ignored.
const maxFormDepth = 8

// PDFExtractor reads text from PDF documents with github.com/ledongthuc/pdf.
type PDFExtractor struct {
	fs     afero.Fs
	logger logging.Logger
}

// NewPDFExtractor creates a PDFExtractor reading from fs.
func NewPDFExtractor(fs afero.Fs, logger logging.Logger) *PDFExtractor {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &PDFExtractor{fs: fs, logger: logger}
}

func (e *PDFExtractor) ExtractLines(path string) ([]string, error) {
	lines, err := e.extract(path)
	if err != nil {
		return nil, &parsererror.ExtractionError{FilePath: path, Err: err}
	}
	return lines, nil
}

func (e *PDFExtractor) extract(path string) (lines []string, err error) {
	// The pdf library panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	file, err := fileutils.OpenFile(e.fs, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if err := validation.CheckPDFHeader(file, path); err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, errors.New("PDF has no pages")
	}

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageLines := assembleLines(pageFragments(page))
		e.logger.Debug("Extracted page",
			logging.F(logging.FieldFile, path),
			logging.F(logging.FieldPages, i),
			logging.F(logging.FieldCount, len(pageLines)))
		lines = append(lines, pageLines...)
	}
	return lines, nil
}

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m × n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func translate(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

// textState is the part of the graphics state that affects text placement.
type textState struct {
	ctm       matrix
	fontSize  float64
	charSpace float64
	wordSpace float64
	hScale    float64
	leading   float64
}

// contentWalker interprets content streams and collects shown text.
type contentWalker struct {
	decode    func(string) string
	fragments []fragment

	state textState
	saved []textState
	tm    matrix // text matrix
	tlm   matrix // text line matrix
}

func pageFragments(page pdf.Page) []fragment {
	w := &contentWalker{
		decode: windows1252,
		state:  textState{ctm: identity, hScale: 1},
		tm:     identity,
		tlm:    identity,
	}
	w.walk(page.V.Key("Contents"), page.Resources(), 0)
	return w.fragments
}

func windows1252(raw string) string {
	decoded, err := charmap.Windows1252.NewDecoder().String(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// walk interprets a content stream, or an array of them, with the given
// resources.
func (w *contentWalker) walk(contents, resources pdf.Value, depth int) {
	if contents.Kind() == pdf.Array {
		for i := 0; i < contents.Len(); i++ {
			w.walk(contents.Index(i), resources, depth)
		}
		return
	}
	if contents.Kind() != pdf.Stream {
		return
	}

	pdf.Interpret(contents, func(stk *pdf.Stack, op string) {
		w.apply(stk, op, resources, depth)
	})
}

// operands pops all operands of the current operator, first operand first.
func operands(stk *pdf.Stack) []pdf.Value {
	args := make([]pdf.Value, stk.Len())
	for i := len(args) - 1; i >= 0; i-- {
		args[i] = stk.Pop()
	}
	return args
}

func number(args []pdf.Value, i int) float64 {
	if i < 0 || i >= len(args) {
		return 0
	}
	return args[i].Float64()
}

// last returns the operand n places from the end, or a null value.
func last(args []pdf.Value, n int) pdf.Value {
	if len(args) < n {
		return pdf.Value{}
	}
	return args[len(args)-n]
}

func toMatrix(args []pdf.Value) matrix {
	var m matrix
	if len(args) < 6 {
		return identity
	}
	offset := len(args) - 6
	for i := range m {
		m[i] = args[offset+i].Float64()
	}
	return m
}

func (w *contentWalker) apply(stk *pdf.Stack, op string, resources pdf.Value, depth int) {
	args := operands(stk)
	n := len(args)

	switch op {
	case "q":
		w.saved = append(w.saved, w.state)
	case "Q":
		if k := len(w.saved); k > 0 {
			w.state = w.saved[k-1]
			w.saved = w.saved[:k-1]
		}
	case "cm":
		w.state.ctm = toMatrix(args).mul(w.state.ctm)
	case "BT":
		w.tm, w.tlm = identity, identity
	case "Tf":
		w.state.fontSize = number(args, n-1)
	case "Tc":
		w.state.charSpace = number(args, n-1)
	case "Tw":
		w.state.wordSpace = number(args, n-1)
	case "Tz":
		w.state.hScale = number(args, n-1) / 100
	case "TL":
		w.state.leading = number(args, n-1)
	case "Td":
		w.moveLine(number(args, n-2), number(args, n-1))
	case "TD":
		w.state.leading = -number(args, n-1)
		w.moveLine(number(args, n-2), number(args, n-1))
	case "Tm":
		w.tlm = toMatrix(args)
		w.tm = w.tlm
	case "T*":
		w.moveLine(0, -w.state.leading)
	case "Tj", "TJ":
		w.show(last(args, 1))
	case "'":
		w.moveLine(0, -w.state.leading)
		w.show(last(args, 1))
	case "\"":
		w.state.wordSpace, w.state.charSpace = number(args, n-3), number(args, n-2)
		w.moveLine(0, -w.state.leading)
		w.show(last(args, 1))
	case "Do":
		w.doXObject(last(args, 1).Name(), resources, depth)
	}
}

func (w *contentWalker) moveLine(tx, ty float64) {
	w.tlm = translate(tx, ty).mul(w.tlm)
	w.tm = w.tlm
}

// show records a Tj string or TJ array and advances the text matrix.
func (w *contentWalker) show(operand pdf.Value) {
	var text strings.Builder
	var advance float64 // in unscaled text space units

	glyphs := func(raw string) {
		decoded := w.decode(raw)
		text.WriteString(decoded)
		for _, r := range decoded {
			advance += averageGlyphWidth/1000.0*w.state.fontSize + w.state.charSpace
			if r == ' ' {
				advance += w.state.wordSpace
			}
		}
	}

	switch operand.Kind() {
	case pdf.String:
		glyphs(operand.RawString())
	case pdf.Array:
		for i := 0; i < operand.Len(); i++ {
			item := operand.Index(i)
			switch item.Kind() {
			case pdf.String:
				glyphs(item.RawString())
			case pdf.Integer, pdf.Real:
				adj := item.Float64()
				if adj < tjSpaceThreshold {
					text.WriteByte(' ')
				}
				advance -= adj / 1000 * w.state.fontSize
			}
		}
	default:
		return
	}

	advance *= w.state.hScale
	render := w.tm.mul(w.state.ctm)
	scaleX := math.Hypot(render[0], render[1])
	scaleY := math.Hypot(render[2], render[3])

	w.fragments = append(w.fragments, fragment{
		X:        render[4],
		Y:        render[5],
		Advance:  advance * scaleX,
		Size:     w.state.fontSize * scaleY,
		Vertical: math.Abs(render[1]) > math.Abs(render[0]),
		Text:     text.String(),
	})
	w.tm = translate(advance, 0).mul(w.tm)
}

func (w *contentWalker) doXObject(name string, resources pdf.Value, depth int) {
	if depth >= maxFormDepth {
		return
	}
	xobj := resources.Key("XObject").Key(name)
	if xobj.Kind() != pdf.Stream || xobj.Key("Subtype").Name() != "Form" {
		return
	}

	formResources := xobj.Key("Resources")
	if formResources.IsNull() {
		formResources = resources
	}

	saved := w.state
	savedTm, savedTlm := w.tm, w.tlm
	if m := xobj.Key("Matrix"); m.Kind() == pdf.Array && m.Len() == 6 {
		var fm matrix
		for i := range fm {
			fm[i] = m.Index(i).Float64()
		}
		w.state.ctm = fm.mul(w.state.ctm)
	}
	w.walk(xobj, formResources, depth+1)
	w.state = saved
	w.tm, w.tlm = savedTm, savedTlm
}
