package extraction

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carematch/internal/objectstore"
	"carematch/internal/verification/models"
	dErrors "carematch/pkg/domain-errors"
)

// buildPDF renders lines as a single-page content stream.
func buildPDF(t *testing.T, compressed bool, lines ...string) []byte {
	t.Helper()
	var content strings.Builder
	content.WriteString("BT /F1 12 Tf 72 720 Td\n")
	for i, line := range lines {
		escaped := strings.NewReplacer(`(`, `\(`, `)`, `\)`).Replace(line)
		if i > 0 {
			content.WriteString("0 -16 Td\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", escaped)
	}
	content.WriteString("ET\n")

	body := []byte(content.String())
	dict := fmt.Sprintf("<< /Length %d >>", len(body))
	if compressed {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		_, err := w.Write(body)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		body = buf.Bytes()
		dict = fmt.Sprintf("<< /Length %d /Filter /FlateDecode >>", len(body))
	}

	var pdf bytes.Buffer
	pdf.WriteString("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n4 0 obj\n")
	pdf.WriteString(dict)
	pdf.WriteString("\nstream\n")
	pdf.Write(body)
	pdf.WriteString("\nendstream\nendobj\n%%EOF\n")
	return pdf.Bytes()
}

func clearanceLines() []string {
	return []string{
		"Working With Children Check",
		"Clearance number: WWC 1234567A",
		"Family name: NGUYEN",
		"First name: Thi",
		"Other names: Mai",
		"Clearance type: Paid",
		"Expiry date: 10/03/2031",
	}
}

func newInspector(t *testing.T, docs map[string][]byte) *PDFInspector {
	t.Helper()
	objects := objectstore.NewInMemory()
	for key, data := range docs {
		objects.Put(key, data)
	}
	inspector, err := NewPDFInspector(objects)
	require.NoError(t, err)
	return inspector
}

func TestPDFInspector_ParsesClearanceLetter(t *testing.T) {
	for _, compressed := range []bool{false, true} {
		t.Run(fmt.Sprintf("compressed=%v", compressed), func(t *testing.T) {
			inspector := newInspector(t, map[string][]byte{
				"uploads/wwcc.pdf": buildPDF(t, compressed, clearanceLines()...),
			})

			inspection, err := inspector.Inspect(context.Background(), []string{"uploads/wwcc.pdf"})
			require.NoError(t, err)

			assert.Equal(t, models.DocumentParsed, inspection.Outcome)
			assert.Equal(t, models.CredentialExtraction{
				Surname:       "NGUYEN",
				FirstName:     "Thi",
				OtherNames:    "Mai",
				Number:        "WWC1234567A",
				ClearanceType: "Paid",
				Expiry:        "2031-03-10",
			}, inspection.Fields)
		})
	}
}

func TestPDFInspector_Outcomes(t *testing.T) {
	t.Run("conflicting numbers are ambiguous", func(t *testing.T) {
		lines := append(clearanceLines(), "Previous clearance: WWC7654321B")
		inspector := newInspector(t, map[string][]byte{"a.pdf": buildPDF(t, false, lines...)})

		inspection, err := inspector.Inspect(context.Background(), []string{"a.pdf"})
		require.NoError(t, err)
		assert.Equal(t, models.DocumentAmbiguous, inspection.Outcome)
		assert.Contains(t, inspection.Detail, "number")
	})

	t.Run("documents that agree are merged", func(t *testing.T) {
		inspector := newInspector(t, map[string][]byte{
			"page1.pdf": buildPDF(t, true, "Clearance number: WWC1234567A", "Family name: Nguyen"),
			"page2.pdf": buildPDF(t, true, "Family name: NGUYEN", "Expiry: 10 March 2031"),
		})

		inspection, err := inspector.Inspect(context.Background(), []string{"page1.pdf", "page2.pdf"})
		require.NoError(t, err)
		assert.Equal(t, models.DocumentParsed, inspection.Outcome)
		assert.Equal(t, "Nguyen", inspection.Fields.Surname)
		assert.Equal(t, "2031-03-10", inspection.Fields.Expiry)
	})

	t.Run("non-PDF is unreadable", func(t *testing.T) {
		inspector := newInspector(t, map[string][]byte{"photo.jpg": []byte("\xff\xd8\xff\xe0")})

		inspection, err := inspector.Inspect(context.Background(), []string{"photo.jpg"})
		require.NoError(t, err)
		assert.Equal(t, models.DocumentUnreadable, inspection.Outcome)
	})

	t.Run("PDF without clearance text is unreadable", func(t *testing.T) {
		inspector := newInspector(t, map[string][]byte{"a.pdf": buildPDF(t, false, "Thank you for your application")})

		inspection, err := inspector.Inspect(context.Background(), []string{"a.pdf"})
		require.NoError(t, err)
		assert.Equal(t, models.DocumentUnreadable, inspection.Outcome)
	})

	t.Run("missing document is a validation error", func(t *testing.T) {
		inspector := newInspector(t, nil)

		_, err := inspector.Inspect(context.Background(), []string{"gone.pdf"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
	})
}

func TestAppendShownText(t *testing.T) {
	var b strings.Builder
	appendShownText(&b, []byte(`BT [(W)80(orking)-300(with)-300(Children)] TJ 0 -14 Td (Escaped \(paren\) and \101) Tj ET`))

	assert.Equal(t, "Working with Children\nEscaped (paren) and A\n", b.String())
}

func TestNewPDFInspector_RequiresReader(t *testing.T) {
	_, err := NewPDFInspector(nil)
	assert.Error(t, err)
}
