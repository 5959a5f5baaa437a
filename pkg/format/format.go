// Package format renders prices, dates, times and weekday sets the way the
// club's screens display them.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DefaultLocale   = "es-ES"
	DefaultCurrency = "USD"
)

// localeData holds the labels of one language. groupSeparator is dropped from
// amounts below minGroupedAmount.
type localeData struct {
	months           [12]string
	weekdays         [7]string
	undefined        string
	symbolAfter      bool
	symbols          map[string]string
	groupSeparator   string
	minGroupedAmount float64
}

// symbolSpace separates an amount from a trailing currency symbol.
const symbolSpace = "\u00a0"

var locales = map[language.Base]localeData{
	mustBase("es"): {
		months:      [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
		weekdays:    [7]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"},
		undefined:   "Por definir",
		symbolAfter: true,
		symbols:     map[string]string{"USD": "US$", "EUR": "€", "GBP": "GBP", "MXN": "MXN"},

		groupSeparator:   ".",
		minGroupedAmount: 10000,
	},
	mustBase("en"): {
		months:    [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		weekdays:  [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		undefined: "TBD",
		symbols:   map[string]string{"USD": "$", "EUR": "€", "GBP": "£", "MXN": "MX$"},
	},
}

func mustBase(s string) language.Base {
	b, err := language.ParseBase(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Formatter is safe for concurrent use.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
	unit    currency.Unit
	data    localeData
	base    language.Base
}

// New builds a formatter for the given BCP 47 locale and ISO 4217 currency.
// Unknown values fall back to es-ES and USD.
func New(locale, currencyCode string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	base, _ := tag.Base()
	data, ok := locales[base]
	if !ok {
		tag = language.MustParse(DefaultLocale)
		base, _ = tag.Base()
		data = locales[base]
	}

	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.USD
	}

	return &Formatter{
		tag:     tag,
		printer: message.NewPrinter(tag),
		unit:    unit,
		data:    data,
		base:    base,
	}
}

// Locale reports the effective locale tag.
func (f *Formatter) Locale() string {
	return f.tag.String()
}

// Currency renders amount with two decimals, locale separators and the symbol
// placed the way the locale writes it. Spanish leaves four digit amounts
// ungrouped and keeps the symbol on the same line.
func (f *Formatter) Currency(amount float64) string {
	rounded := math.Round(amount*100) / 100
	number := f.printer.Sprintf("%.2f", rounded)
	if f.data.minGroupedAmount > 0 && math.Abs(rounded) < f.data.minGroupedAmount {
		number = strings.ReplaceAll(number, f.data.groupSeparator, "")
	}
	symbol := f.symbol()
	if f.data.symbolAfter {
		return number + symbolSpace + symbol
	}
	if strings.HasPrefix(number, "-") {
		return "-" + symbol + strings.TrimPrefix(number, "-")
	}
	return symbol + number
}

func (f *Formatter) symbol() string {
	code := f.unit.String()
	if s, ok := f.data.symbols[code]; ok {
		return s
	}
	return code
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// Date renders "5 ene 2025" (es) or "Jan 5, 2025" (en). Input that does not
// parse as a date is returned unchanged.
func (f *Formatter) Date(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	var (
		t   time.Time
		err error
	)
	for _, layout := range dateLayouts {
		if t, err = time.Parse(layout, value); err == nil {
			break
		}
	}
	if err != nil {
		return raw
	}
	month := f.data.months[t.Month()-1]
	if f.base == mustBase("en") {
		return month + " " + strconv.Itoa(t.Day()) + ", " + strconv.Itoa(t.Year())
	}
	return strconv.Itoa(t.Day()) + " " + month + " " + strconv.Itoa(t.Year())
}

// Time12 converts "HH:MM" (seconds ignored) to a 12-hour clock with AM/PM.
// Hour 0 reads as 12 AM and hour 12 as 12 PM. Malformed input is returned as given.
func Time12(hhmm string) string {
	value := strings.TrimSpace(hhmm)
	if value == "" {
		return ""
	}
	parts := strings.Split(value, ":")
	if len(parts) < 2 {
		return hhmm
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return hhmm
	}
	minute := parts[1]
	if m, err := strconv.Atoi(minute); err != nil || m < 0 || m > 59 || len(minute) != 2 {
		return hhmm
	}

	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return strconv.Itoa(display) + ":" + minute + " " + suffix
}

// Days joins weekday indexes (0 = Sunday) into localized abbreviations.
// Entries that are not an index are kept verbatim. A nil or empty set yields
// the locale's placeholder.
func (f *Formatter) Days(days []string) string {
	if len(days) == 0 {
		return f.data.undefined
	}
	names := make([]string, 0, len(days))
	for _, day := range days {
		trimmed := strings.TrimSpace(day)
		if idx, err := strconv.Atoi(trimmed); err == nil && idx >= 0 && idx < len(f.data.weekdays) {
			names = append(names, f.data.weekdays[idx])
			continue
		}
		names = append(names, trimmed)
	}
	return strings.Join(names, ", ")
}

// Undefined returns the placeholder used for missing values.
func (f *Formatter) Undefined() string {
	return f.data.undefined
}
