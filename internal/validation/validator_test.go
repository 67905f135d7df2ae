package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/census-bulk-importer/internal/types"
)

func row(kv ...string) types.Row {
	var r types.Row
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

var fullHeaders = []string{"COMUNIDAD", "TORRE", "CASA O APTO", "APELLIDOS Y NOMBRES", "CEDULA"}

func TestValidateClean(t *testing.T) {
	res := Validate(fullHeaders, []types.Row{
		row("COMUNIDAD", "Norte", "APELLIDOS Y NOMBRES", "Pérez Ana"),
	})
	assert.True(t, res.Clean())
	assert.Equal(t, 1, res.RowsValidated)
	assert.Empty(t, res.MissingColumns)
}

func TestValidateMissingColumns(t *testing.T) {
	headers := []string{"Comunidad", "TORRE", "APELLIDOS Y NOMBRES"}
	res := Validate(headers, nil)

	assert.Equal(t, []string{"COMUNIDAD", "CASA O APTO"}, res.MissingColumns)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 2, res.WarningCount())

	first := res.Errors[0]
	assert.Equal(t, RuleMissingColumn, first.Rule)
	assert.Equal(t, 0, first.RowNumber)
	assert.Contains(t, first.Message, `found "Comunidad"`)
	assert.Contains(t, first.Error(), "[WARNING] Column 'COMUNIDAD'")

	assert.NotContains(t, res.Errors[1].Message, "found")
}

func TestValidateRowsWithoutName(t *testing.T) {
	res := Validate(fullHeaders, []types.Row{
		row("COMUNIDAD", "Norte", "APELLIDOS Y NOMBRES", "Pérez Ana"),
		row("COMUNIDAD", "Norte"),
		row("APELLIDOS Y NOMBRES", "   "),
	})

	require.Len(t, res.Errors, 2)
	assert.Equal(t, 2, res.Errors[0].RowNumber)
	assert.Equal(t, 3, res.Errors[1].RowNumber)
	assert.Equal(t, RuleMissingIdentity, res.Errors[0].Rule)
	assert.Contains(t, res.Errors[0].Message, "Nombre no encontrado")
	assert.Equal(t, "[WARNING] Row 2, Field 'APELLIDOS Y NOMBRES': "+res.Errors[0].Message, res.Errors[0].Error())
}

func TestValidateMissingIdentityColumnReportedOnce(t *testing.T) {
	res := Validate([]string{"COMUNIDAD", "TORRE", "CASA O APTO"}, []types.Row{
		row("COMUNIDAD", "Norte"),
		row("COMUNIDAD", "Sur"),
	})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "APELLIDOS Y NOMBRES", res.Errors[0].Field)
	assert.NotContains(t, res.Errors[0].Message, "default bucket")
}

func TestValidateCapsRowFindings(t *testing.T) {
	v := NewValidator()
	v.MaxRowFindings = 2

	rows := []types.Row{row("COMUNIDAD", "a"), row("COMUNIDAD", "b"), row("COMUNIDAD", "c"), row("COMUNIDAD", "d")}
	res := v.Validate(fullHeaders, rows)

	require.Len(t, res.Errors, 3)
	assert.Equal(t, 2, res.WarningCount())
	assert.Equal(t, SeverityInfo, res.Errors[2].Severity)
	assert.False(t, res.Clean())
}
