package validation

import (
	"errors"
	"strings"
	"testing"

	"dbkr/kontoauszug-reader/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPDFHeader(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{name: "plain header", content: "%PDF-1.4\n%âãÏÓ\n1 0 obj"},
		{name: "junk before header", content: strings.Repeat(" ", 100) + "%PDF-1.7"},
		{name: "empty file", content: "", wantMsg: "file is empty"},
		{name: "text file", content: "Kontoauszug vom 29.12.2017 bis 31.01.2018", wantMsg: "missing %PDF- signature"},
		{name: "header too late", content: strings.Repeat("x", 2000) + "%PDF-1.4", wantMsg: "missing %PDF- signature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPDFHeader(strings.NewReader(tt.content), "doc.pdf")
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var formatErr *parsererror.InvalidFormatError
			require.True(t, errors.As(err, &formatErr), "got %v", err)
			assert.Equal(t, "doc.pdf", formatErr.FilePath)
			assert.Equal(t, "PDF", formatErr.ExpectedFormat)
			assert.Equal(t, tt.wantMsg, formatErr.Msg)
		})
	}
}
