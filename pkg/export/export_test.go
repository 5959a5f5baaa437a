package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"nombre", "email"},
		Rows: []map[string]string{
			{"nombre": "Ana Pérez", "email": "ana@example.com"},
			{"nombre": "Luis, Jr", "email": ""},
		},
	})
	require.NoError(t, err)

	text := strings.TrimPrefix(string(out), "\uFEFF")
	assert.Equal(t, "nombre,email\nAna Pérez,ana@example.com\n\"Luis, Jr\",\n", text)
}

func TestCSVExporterRejectsBadHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{Headers: []string{"a", "a"}})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(Document{
		Title: "Comprobante",
		Sections: []Section{{
			Heading: "Inscripción",
			Fields:  []Field{{Label: "Participante", Value: "Ana Pérez"}},
		}},
		Footer: "El administrador verificará tu pago.",
		QRCode: "http://localhost:8080/api/v1/receipts/abc",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Document{})
	assert.Error(t, err)
}
