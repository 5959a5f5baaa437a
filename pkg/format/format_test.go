package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		locale   string
		currency string
		amount   float64
		want     string
	}{
		{name: "spanish dollars", locale: "es-ES", currency: "USD", amount: 50, want: "50,00\u00a0US$"},
		{name: "spanish four digits ungrouped", locale: "es-ES", currency: "USD", amount: 1234.5, want: "1234,50\u00a0US$"},
		{name: "spanish five digits grouped", locale: "es-ES", currency: "USD", amount: 12345.5, want: "12.345,50\u00a0US$"},
		{name: "spanish rounds into grouping", locale: "es-ES", currency: "EUR", amount: 9999.999, want: "10.000,00\u00a0€"},
		{name: "english dollars", locale: "en-US", currency: "USD", amount: 1234.5, want: "$1,234.50"},
		{name: "english negative", locale: "en-US", currency: "USD", amount: -5, want: "-$5.00"},
		{name: "unknown locale falls back", locale: "zz-??", currency: "USD", amount: 50, want: "50,00\u00a0US$"},
		{name: "unknown currency falls back", locale: "en", currency: "nope", amount: 1, want: "$1.00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, New(tc.locale, tc.currency).Currency(tc.amount))
		})
	}
}

func TestDate(t *testing.T) {
	es := New("es-ES", "USD")
	en := New("en-US", "USD")

	assert.Equal(t, "5 ene 2025", es.Date("2025-01-05"))
	assert.Equal(t, "30 sept 2025", es.Date("2025-09-30T10:00:00Z"))
	assert.Equal(t, "Jan 5, 2025", en.Date("2025-01-05"))
	assert.Equal(t, "pronto", es.Date("pronto"))
	assert.Equal(t, "", es.Date(""))
}

func TestTime12(t *testing.T) {
	tests := map[string]string{
		"13:05":    "1:05 PM",
		"00:30":    "12:30 AM",
		"12:00":    "12:00 PM",
		"09:15":    "9:15 AM",
		"23:59:00": "11:59 PM",
		"":         "",
		"25:00":    "25:00",
		"noon":     "noon",
	}
	for in, want := range tests {
		assert.Equal(t, want, Time12(in), in)
	}
}

func TestDays(t *testing.T) {
	es := New("es-ES", "USD")

	assert.Equal(t, "Lun, Mié, Vie", es.Days([]string{"1", "3", "5"}))
	assert.Equal(t, "Dom, Sáb", es.Days([]string{"0", "6"}))
	assert.Equal(t, "Lun, Feriado", es.Days([]string{"1", "Feriado"}))
	assert.Equal(t, "Por definir", es.Days(nil))
	assert.Equal(t, "Por definir", es.Days([]string{}))
	assert.Equal(t, "Mon, Wed", New("en", "USD").Days([]string{"1", "3"}))
}
