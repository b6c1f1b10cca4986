package convert

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"dbkr/kontoauszug-reader/internal/config"
	"dbkr/kontoauszug-reader/internal/container"
	"dbkr/kontoauszug-reader/internal/logging"
	"dbkr/kontoauszug-reader/internal/output"
	"dbkr/kontoauszug-reader/internal/parsererror"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const januaryStatement = `Kontoauszug vom 29.12.2017 bis 31.01.2018
Buchung Valuta Vorgang Soll Haben
02.01. 29.12. SEPA Ueberweisung - 600,00
Verwendungszweck Miete
02.01. 29.12. Kartenzahlung - 12,50
Filialnummer Kontonummer Neuer Saldo
`

const februaryStatement = `Kontoauszug vom 01.02.2018 bis 28.02.2018
Buchung Valuta Vorgang Soll Haben
05.02. 05.02. Gutschrift + 1.250,00
Filialnummer Kontonummer Neuer Saldo
`

func newTestContainer(t *testing.T) (*container.Container, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/Kontoauszug_2018_01.txt", []byte(januaryStatement), 0o600))
	require.NoError(t, afero.WriteFile(fs, "/in/Kontoauszug_2018_02.txt", []byte(februaryStatement), 0o600))
	require.NoError(t, afero.WriteFile(fs, "/in/notes.txt", []byte("nothing to see\n"), 0o600))
	require.NoError(t, fs.MkdirAll("/out", 0o750))

	cfg := &config.Config{}
	cfg.Log.Level, cfg.Log.Format = "info", "text"
	cfg.Output.Format, cfg.Output.DateField = "json", "valuta"
	cfg.CSV.Delimiter = ","
	cfg.Batch.Workers = 2
	cfg.Input.Prefix = "Kontoauszug_"
	cfg.Server.BodyLimitMB = 1

	c, err := container.NewContainer(cfg, container.WithFilesystem(fs), container.WithLogger(logging.NewMockLogger()))
	require.NoError(t, err)
	return c, fs
}

func TestFlags_CheckConflicts(t *testing.T) {
	tests := []struct {
		name       string
		flags      Flags
		wantOption string
	}{
		{name: "stream defaults", flags: Flags{}},
		{name: "per-date with modifiers", flags: Flags{Dir: "/out", Update: true, Month: true, BookingDate: true}},
		{name: "per-document with update", flags: Flags{PerDocument: true, Update: true}},
		{name: "stream lines to file", flags: Flags{Lines: true, Output: "out.json"}},
		{name: "json with output file", flags: Flags{PerDocument: true, Output: "x.json"}, wantOption: "-j"},
		{name: "json with dir", flags: Flags{PerDocument: true, Dir: "/out"}, wantOption: "-j"},
		{name: "output with dir", flags: Flags{Output: "x.json", Dir: "/out"}, wantOption: "-o"},
		{name: "update without target", flags: Flags{Update: true}, wantOption: "-u"},
		{name: "month without dir", flags: Flags{Month: true, PerDocument: true}, wantOption: "-m"},
		{name: "json with lines", flags: Flags{PerDocument: true, Lines: true}, wantOption: "-j"},
		{name: "dir with lines", flags: Flags{Dir: "/out", Lines: true}, wantOption: "--lines"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.flags.CheckConflicts()
			if tt.wantOption == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *parsererror.ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
			assert.Equal(t, tt.wantOption, cfgErr.Option)
		})
	}
}

func TestFlags_Mode(t *testing.T) {
	assert.Equal(t, output.ModeStream, Flags{}.Mode())
	assert.Equal(t, output.ModePerDocument, Flags{PerDocument: true}.Mode())
	assert.Equal(t, output.ModePerDate, Flags{Dir: "/out"}.Mode())
}

func TestFlags_RouterOptions_ConfigOnlyWhereSupported(t *testing.T) {
	c, _ := newTestContainer(t)
	c.GetConfig().Output.Overwrite = true
	c.GetConfig().Output.MonthOnly = true

	stream := Flags{}.RouterOptions(c)
	assert.False(t, stream.Overwrite)
	assert.False(t, stream.MonthOnly)
	assert.NoError(t, stream.Validate())

	perDate := Flags{Dir: "/out", BookingDate: true}.RouterOptions(c)
	assert.True(t, perDate.Overwrite)
	assert.True(t, perDate.MonthOnly)
	assert.Equal(t, output.DateFieldBooking, perDate.DateField)
	assert.Equal(t, "/out", perDate.BaseDir)
}

func TestRun_StreamToStdout(t *testing.T) {
	c, _ := newTestContainer(t)
	c.GetConfig().Output.OneLine = true

	var stdout bytes.Buffer
	result, err := Run(context.Background(), c, Flags{}, []string{"/in"}, &stdout)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Statements)
	assert.Equal(t, 3, result.Output.LinesEmitted)
	assert.Contains(t, stdout.String(), `"text":"SEPA Ueberweisung Verwendungszweck Miete"`)
	assert.Contains(t, stdout.String(), "Number of booking lines processed: 3\n")
	assert.NotContains(t, stdout.String(), "notes.txt", "prefix filter applies to directory scans")
}

func TestRun_QuietSuppressesCount(t *testing.T) {
	c, fs := newTestContainer(t)

	var stdout bytes.Buffer
	_, err := Run(context.Background(), c, Flags{Quiet: true, Output: "/out/all.json"}, []string{"/in"}, &stdout)
	require.NoError(t, err)
	assert.Empty(t, stdout.String())

	data, err := afero.ReadFile(fs, "/out/all.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pdfFile": "/in/Kontoauszug_2018_01.txt"`)
}

func TestRun_PerDateTree(t *testing.T) {
	c, fs := newTestContainer(t)

	var stdout bytes.Buffer
	result, err := Run(context.Background(), c, Flags{Dir: "/out", Verbose: true}, []string{"/in"}, &stdout)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Output.LinesEmitted)

	for _, path := range []string{
		"/out/2017/12/29/2017-12-29-00000001.json",
		"/out/2017/12/29/2017-12-29-00000002.json",
		"/out/2018/02/05/2018-02-05-00000001.json",
	} {
		exists, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.True(t, exists, path)
		assert.Contains(t, stdout.String(), path+"\n", "verbose lists written files")
	}

	// A second run leaves existing files alone.
	stdout.Reset()
	result, err = Run(context.Background(), c, Flags{Dir: "/out"}, []string{"/in"}, &stdout)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Output.LinesEmitted)
	assert.Equal(t, "Number of booking lines processed: 0\n", stdout.String())
}

func TestRun_PerDocument(t *testing.T) {
	c, fs := newTestContainer(t)
	c.GetConfig().Output.Format = "yaml"

	_, err := Run(context.Background(), c, Flags{PerDocument: true, Quiet: true},
		[]string{"/in/Kontoauszug_2018_02.txt"}, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "/in/Kontoauszug_2018_02.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "text: Gutschrift")
}

func TestRun_RejectsMissingDirectory(t *testing.T) {
	c, _ := newTestContainer(t)

	_, err := Run(context.Background(), c, Flags{Dir: "/nowhere"}, []string{"/in"}, &bytes.Buffer{})
	var cfgErr *parsererror.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "-d", cfgErr.Option)
}

func TestRun_MissingArgumentAndComments(t *testing.T) {
	c, _ := newTestContainer(t)

	_, err := Run(context.Background(), c, Flags{}, []string{"/in/missing.pdf"}, &bytes.Buffer{})
	assert.Error(t, err)

	var stdout bytes.Buffer
	result, err := Run(context.Background(), c, Flags{}, []string{"#/in/missing.pdf"}, &stdout)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Documents)
	assert.Equal(t, "Number of booking lines processed: 0\n", stdout.String())
}

func TestRun_CollectsDocumentFailures(t *testing.T) {
	c, fs := newTestContainer(t)
	require.NoError(t, afero.WriteFile(fs, "/in/broken.pdf", []byte("not a pdf"), 0o600))

	result, err := Run(context.Background(), c, Flags{Quiet: true},
		[]string{"/in/broken.pdf", "/in/Kontoauszug_2018_02.txt"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, result.Failed())
	assert.Equal(t, "/in/broken.pdf", result.Failures[0].Path)
	assert.Equal(t, 1, result.Output.LinesEmitted)
}
