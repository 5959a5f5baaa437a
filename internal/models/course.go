package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Course is an open vacation course offered by the club.
type Course struct {
	ID          int    `json:"id_curso"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
	StartDate   string `json:"fecha_inicio"`
	EndDate     string `json:"fecha_fin"`
	Price       Amount `json:"precio"`
}

// CourseGroup is a scheduled section of a course with its own capacity.
type CourseGroup struct {
	ID         int        `json:"id_grupo"`
	CourseID   int        `json:"id_curso,omitempty"`
	Name       string     `json:"nombre"`
	Capacity   int        `json:"cupo_maximo"`
	Occupancy  int        `json:"cupo_actual"`
	StartTime  string     `json:"hora_inicio"`
	EndTime    string     `json:"hora_fin"`
	DaysOfWeek DaysOfWeek `json:"dias_semana"`
}

// RemainingSlots is capacity minus current occupancy, never negative.
func (g CourseGroup) RemainingSlots() int {
	remaining := g.Capacity - g.Occupancy
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Selectable reports whether the group still has room.
func (g CourseGroup) Selectable() bool {
	return g.RemainingSlots() > 0
}

// Amount decodes prices sent either as JSON numbers or numeric strings
// (Postgres NUMERIC columns serialise as strings).
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*a = 0
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", raw, err)
		}
		*a = Amount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

// DaysOfWeek holds weekday entries (0 = Sunday). The club API sends them as
// numbers, numeric strings or a comma separated string; all are normalised to
// strings so unknown entries can still be displayed verbatim.
type DaysOfWeek []string

// UnmarshalJSON implements json.Unmarshaler.
func (d *DaysOfWeek) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = nil
		return nil
	}

	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*d = splitDays(raw)
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("dias_semana: %w", err)
	}
	days := make(DaysOfWeek, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			days = append(days, strings.TrimSpace(s))
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return fmt.Errorf("dias_semana entry %s: %w", string(item), err)
		}
		days = append(days, n.String())
	}
	*d = days
	return nil
}

func splitDays(raw string) DaysOfWeek {
	raw = strings.Trim(strings.TrimSpace(raw), "{}[]")
	if raw == "" {
		return DaysOfWeek{}
	}
	parts := strings.Split(raw, ",")
	days := make(DaysOfWeek, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.Trim(strings.TrimSpace(part), `"`); trimmed != "" {
			days = append(days, trimmed)
		}
	}
	return days
}
