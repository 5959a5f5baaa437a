package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseGroupDecode(t *testing.T) {
	raw := `[
		{"id_grupo":100,"nombre":"Mañana","cupo_maximo":20,"cupo_actual":20,"hora_inicio":"08:00","hora_fin":"10:00","dias_semana":[1,3,5]},
		{"id_grupo":101,"nombre":"Tarde","cupo_maximo":20,"cupo_actual":5,"hora_inicio":"15:00","hora_fin":"17:00","dias_semana":["2","4"]},
		{"id_grupo":102,"nombre":"Noche","cupo_maximo":10,"cupo_actual":12,"dias_semana":"1,6"},
		{"id_grupo":103,"nombre":"Sábado","cupo_maximo":10,"cupo_actual":0,"dias_semana":null}
	]`

	var groups []CourseGroup
	require.NoError(t, json.Unmarshal([]byte(raw), &groups))
	require.Len(t, groups, 4)

	assert.Equal(t, DaysOfWeek{"1", "3", "5"}, groups[0].DaysOfWeek)
	assert.False(t, groups[0].Selectable())
	assert.Equal(t, DaysOfWeek{"2", "4"}, groups[1].DaysOfWeek)
	assert.Equal(t, 15, groups[1].RemainingSlots())
	assert.True(t, groups[1].Selectable())
	assert.Equal(t, DaysOfWeek{"1", "6"}, groups[2].DaysOfWeek)
	assert.Equal(t, 0, groups[2].RemainingSlots())
	assert.Nil(t, groups[3].DaysOfWeek)
}

func TestCourseDecodeAmount(t *testing.T) {
	var courses []Course
	require.NoError(t, json.Unmarshal([]byte(`[{"id_curso":10,"nombre":"Natación","precio":50},{"id_curso":11,"nombre":"Fútbol","precio":"35.50"},{"id_curso":12,"nombre":"Tenis","precio":null}]`), &courses))

	assert.Equal(t, Amount(50), courses[0].Price)
	assert.Equal(t, Amount(35.5), courses[1].Price)
	assert.Equal(t, Amount(0), courses[2].Price)

	var bad Course
	assert.Error(t, json.Unmarshal([]byte(`{"precio":"gratis"}`), &bad))
}

func TestUserPayloadOmitsBlankPassword(t *testing.T) {
	body, err := json.Marshal(UserPayload{FirstName: "Ana", LastName: "Pérez", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "id_rol")

	roleID := 2
	body, err = json.Marshal(UserPayload{Email: "ana@example.com", Password: "secreto", RoleID: &roleID})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"password":"secreto"`)
	assert.Contains(t, string(body), `"id_rol":2`)
}

func TestListQueryCloneCopiesFilters(t *testing.T) {
	q := ListQuery{Page: 2, Filters: map[string]string{"status": "activo"}}
	clone := q.Clone()
	clone.Filters["status"] = "inactivo"

	assert.Equal(t, "activo", q.Filters["status"])
}

func TestParticipantFullName(t *testing.T) {
	assert.Equal(t, "Ana Pérez", Participant{FirstName: "Ana", LastName: "Pérez"}.FullName())
	assert.Equal(t, "Ana", Participant{FirstName: "Ana"}.FullName())
	assert.Equal(t, "", Participant{}.CategoryName())
}
