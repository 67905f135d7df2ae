package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowSetKeepsFirstPosition(t *testing.T) {
	r := NewRow(
		Field{Name: "TORRE", Value: "1"},
		Field{Name: "COMUNIDAD", Value: "A"},
	)
	r.Set("TORRE", "2")
	r.Set("CASA O APTO", "101")

	assert.Equal(t, []string{"TORRE", "COMUNIDAD", "CASA O APTO"}, r.Names())

	v, ok := r.Get("TORRE")
	require.True(t, ok)
	assert.Equal(t, "2", v)

	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 3, r.Len())
}

func TestZeroRowIsUsable(t *testing.T) {
	var r Row
	assert.False(t, r.Has("x"))
	assert.Equal(t, 0, r.Len())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestRowMarshalJSONPreservesColumnOrder(t *testing.T) {
	r := NewRow(
		Field{Name: "ZETA", Value: "z"},
		Field{Name: "APELLIDOS Y NOMBRES", Value: `Pérez "Juan"`},
		Field{Name: "ALFA", Value: "a"},
	)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"ZETA":"z","APELLIDOS Y NOMBRES":"Pérez \"Juan\"","ALFA":"a"}`, string(data))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.Map(), decoded)
}

func TestRowUnmarshalJSONKeepsKeyOrder(t *testing.T) {
	var rows []Row
	require.NoError(t, json.Unmarshal([]byte(`[{"TORRE":"2","COMUNIDAD":"Sur","CEDULA":"9"},{}]`), &rows))

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"TORRE", "COMUNIDAD", "CEDULA"}, rows[0].Names())
	assert.Equal(t, 0, rows[1].Len())

	var bad Row
	assert.Error(t, json.Unmarshal([]byte(`{"TORRE":2}`), &bad))
}

func TestFieldsReturnsCopy(t *testing.T) {
	r := NewRow(Field{Name: "A", Value: "1"})
	fields := r.Fields()
	fields[0].Value = "changed"

	v, _ := r.Get("A")
	assert.Equal(t, "1", v)
}

func TestCleanHeaders(t *testing.T) {
	got := CleanHeaders([]string{" COMUNIDAD ", "", "TORRE", "TORRE", "TORRE_1", "TORRE"})
	assert.Equal(t, []string{"COMUNIDAD", "Column_2", "TORRE", "TORRE_1", "TORRE_1_1", "TORRE_2"}, got)
}

func TestCleanHeadersKeyVariants(t *testing.T) {
	got := CleanHeaders([]string{"Fecha", "FECHA", "FECHA NAC", "FECHA-NAC", "fecha_1", "Fecha Nac"})
	assert.Equal(t, []string{"Fecha", "FECHA_1", "FECHA NAC", "FECHA-NAC_1", "fecha_1_1", "Fecha Nac_2"}, got)

	keys := make(map[string]bool)
	for _, h := range got {
		assert.False(t, keys[FieldKey(h)], "duplicate key for %q", h)
		keys[FieldKey(h)] = true
	}
}

func TestFieldKey(t *testing.T) {
	assert.Equal(t, "apellidos-y-nombres", FieldKey("APELLIDOS Y NOMBRES"))
	assert.Equal(t, FieldKey("FECHA NAC"), FieldKey("fecha-nac"))
}

func TestRowsFromGrid(t *testing.T) {
	grid := [][]string{
		{"", ""},
		{"COMUNIDAD", "TORRE", "APELLIDOS Y NOMBRES"},
		{"A", "", " Pérez Ana "},
		{" ", ""},
		{"B", "2"},
	}

	headers, rows := RowsFromGrid(grid)
	assert.Equal(t, []string{"COMUNIDAD", "TORRE", "APELLIDOS Y NOMBRES"}, headers)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"COMUNIDAD", "APELLIDOS Y NOMBRES"}, rows[0].Names())
	v, _ := rows[0].Get("APELLIDOS Y NOMBRES")
	assert.Equal(t, "Pérez Ana", v)
	assert.False(t, rows[0].Has("TORRE"))

	assert.Equal(t, map[string]string{"COMUNIDAD": "B", "TORRE": "2"}, rows[1].Map())
}

func TestRowsFromGridAllBlank(t *testing.T) {
	headers, rows := RowsFromGrid([][]string{{""}, {}})
	assert.Nil(t, headers)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
