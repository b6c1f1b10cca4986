package pdfparser

import (
	"bytes"
	"fmt"
)

// buildPDF assembles a minimal PDF with one page per content stream, all
// pages sharing a Helvetica font resource named F1.
func buildPDF(contents ...string) []byte {
	var buf bytes.Buffer
	var offsets []int

	object := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	fontID := 3
	firstPageID := 4
	kids := ""
	for i := range contents {
		kids += fmt.Sprintf("%d 0 R ", firstPageID+2*i)
	}

	object("<< /Type /Catalog /Pages 2 0 R >>")
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(contents)))
	object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	for i, content := range contents {
		object(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] "+
			"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			fontID, firstPageID+2*i+1))
		object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xref)
	return buf.Bytes()
}

const statementPage = `BT /F1 10 Tf 1 0 0 1 50 800 Tm (Kontoauszug vom 29.12.2017 bis 31.01.2018) Tj ET
BT /F1 10 Tf 50 780 Td (Buchung Valuta Vorgang Soll Haben) Tj ET
BT /F1 10 Tf 50 760 Td (02.01. 29.12. SEPA) Tj 100 0 Td (\334berweisung) Tj ET
BT /F1 10 Tf 400 760 Td [(- 600,00)] TJ ET
BT /F1 10 Tf 50 740 Td [(Filialnummer) -300 (Kontonummer) -300 (Neuer Saldo)] TJ ET
BT /F1 6 Tf 0 1 -1 0 20 100 Tm (0012345678 / 12345678 / 87654321) Tj ET`
