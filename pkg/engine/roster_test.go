package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recon/pkg/schema"
)

func rosterTable(rows ...[]string) schema.Table {
	return schema.Table{
		Headers: []string{"RUT", "Nombre", "Departamento", "Cargo", "Estado"},
		Rows:    rows,
	}
}

func TestRosterIngest_ActiveWinsWithConflict(t *testing.T) {
	table := rosterTable(
		[]string{"12.345.678-9", "Ana Díaz", "Finanzas", "Analista", "Activo"},
		[]string{"12345678-9", "Ana Diaz", "", "", "Inactivo"},
	)

	records, err := NewRosterIngestor(nil).Ingest(table)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, schema.Identifier("12345678-9"), rec.Identifier)
	assert.Equal(t, schema.StatusActive, rec.FinalStatus)
	assert.True(t, rec.HasConflict)
	assert.Equal(t, 2, rec.OccurrenceCount)
	assert.Equal(t, []schema.Status{schema.StatusActive, schema.StatusInactive}, rec.StatusesSeen)
	// Attributes come from the first row seen.
	assert.Equal(t, "Ana Díaz", rec.DisplayName)
	assert.Equal(t, "Finanzas", rec.Department)
	assert.Equal(t, "Analista", rec.Title)
}

func TestRosterIngest_AllInactiveIsNotConflict(t *testing.T) {
	table := rosterTable(
		[]string{"9.876.543-2", "Luis Rojas", "", "", "INACTIVO"},
		[]string{"9876543-2", "Luis Rojas", "", "", "inactivo"},
	)

	records, err := NewRosterIngestor(nil).Ingest(table)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, schema.StatusInactive, records[0].FinalStatus)
	assert.False(t, records[0].HasConflict)
	assert.Equal(t, 2, records[0].OccurrenceCount)
}

func TestRosterIngest_RepeatedActiveIsNotConflict(t *testing.T) {
	table := rosterTable(
		[]string{"11.111.111-1", "Eva", "", "", "Activo"},
		[]string{"11.111.111-1", "Eva", "", "", "Vigente"},
	)

	records, err := NewRosterIngestor(nil).Ingest(table)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].HasConflict)
	assert.Equal(t, schema.StatusActive, records[0].FinalStatus)
}

func TestRosterIngest_SkipsRowsWithoutIdentifier(t *testing.T) {
	table := rosterTable(
		[]string{"sin rut", "Nadie", "", "", "Activo"},
		[]string{"", "Tampoco", "", "", "Activo"},
		[]string{"22.222.222-2", "Marta", "", "", "Activo"},
		[]string{"33.333.333-K", "", "", "", "Activo"},
	)

	records, err := NewRosterIngestor(nil).Ingest(table)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, schema.Identifier("22222222-2"), records[0].Identifier)
	assert.Equal(t, schema.Identifier("33333333-K"), records[1].Identifier)
	assert.Equal(t, schema.UnknownName, records[1].DisplayName)
}

func TestRosterIngest_NoStatusColumnDefaultsActive(t *testing.T) {
	table := schema.Table{
		Headers: []string{"Documento", "Nombre"},
		Rows:    [][]string{{"12.345.678-9", "Ana"}},
	}

	records, err := NewRosterIngestor(nil).Ingest(table)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, schema.StatusActive, records[0].FinalStatus)
}

func TestRosterIngest_IdentifierColumnBySampling(t *testing.T) {
	table := schema.Table{
		Headers: []string{"Nombre", "Codigo", "Situacion"},
		Rows: [][]string{
			{"Ana", "12.345.678-9", "Activo"},
			{"Luis", "9.876.543-2", "Inactivo"},
			{"Eva", "11.111.111-1", "Activo"},
		},
	}

	records, err := NewRosterIngestor(nil).Ingest(table)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, schema.StatusInactive, records[1].FinalStatus)
}

func TestRosterIngest_SchemaError(t *testing.T) {
	table := schema.Table{
		Headers: []string{"Nombre", "Cargo"},
		Rows:    [][]string{{"Ana", "Analista"}},
	}

	_, err := NewRosterIngestor(nil).Ingest(table)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "roster", schemaErr.Source)
	assert.Equal(t, schema.FieldIdentifier, schemaErr.Field)
}

func TestRosterStatus(t *testing.T) {
	assert.Equal(t, schema.StatusActive, RosterStatus("Activo"))
	assert.Equal(t, schema.StatusActive, RosterStatus("ACTIVA"))
	assert.Equal(t, schema.StatusInactive, RosterStatus("Inactivo"))
	assert.Equal(t, schema.StatusInactive, RosterStatus("inactive"))
	assert.Equal(t, schema.StatusActive, RosterStatus("Licencia"))
	assert.Equal(t, schema.StatusActive, RosterStatus(""))
}
