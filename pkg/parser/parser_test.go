package parser

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ',', DetectDelimiter([]byte("user,rut\na,b")))
	assert.Equal(t, ';', DetectDelimiter([]byte("user;rut\na,b,c")))
	assert.Equal(t, '\t', DetectDelimiter([]byte("user\trut\n")))
	assert.Equal(t, '|', DetectDelimiter([]byte("user|rut")))
	assert.Equal(t, ',', DetectDelimiter([]byte("username\njperez;x")))
	// Comma wins over semicolon when both are on the first line.
	assert.Equal(t, ',', DetectDelimiter([]byte("a;b,c")))
}

func TestParseDelimited_PadsAndTruncates(t *testing.T) {
	data := []byte("Usuario;RUT;Estado\njperez;12.345.678-9;Enabled\nmlopez;9.876.543-2\nx;y;z;extra\n")

	res, err := ParseDelimited(data)
	require.NoError(t, err)

	assert.Equal(t, ';', res.Delimiter)
	assert.Equal(t, []string{"Usuario", "RUT", "Estado"}, res.Table.Headers)
	require.Len(t, res.Table.Rows, 3)
	assert.Equal(t, []string{"mlopez", "9.876.543-2", ""}, res.Table.Rows[1])
	assert.Equal(t, []string{"x", "y", "z"}, res.Table.Rows[2])
	assert.Len(t, res.Warnings, 2)
	assert.Equal(t, 3, res.Warnings[0].Row)
}

func TestParseDelimited_HeaderOnly(t *testing.T) {
	res, err := ParseDelimited([]byte("username,rut\n"))
	require.NoError(t, err)
	assert.Empty(t, res.Table.Rows)
}

func TestParseDelimited_Empty(t *testing.T) {
	_, err := ParseDelimited(nil)
	assert.Error(t, err)
}

func TestDetectAndDecode(t *testing.T) {
	out, enc, err := DetectAndDecode(append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b")...))
	require.NoError(t, err)
	assert.Equal(t, "utf-8-bom", enc)
	assert.Equal(t, "a,b", string(out))

	out, enc, err = DetectAndDecode([]byte{0xFF, 0xFE, 'a', 0, ',', 0, 'b', 0})
	require.NoError(t, err)
	assert.Equal(t, "utf-16le", enc)
	assert.Equal(t, "a,b", string(out))

	out, enc, err = DetectAndDecode([]byte{'P', 0xE9, 'r', 'e', 'z'})
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", enc)
	assert.Equal(t, "Pérez", string(out))
}

func TestReadWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"RUT", "Nombre", "Estado"},
		{"12.345.678-9", "Ana Díaz", "Activo"},
		{},
		{"9.876.543-2", "Luis Rojas"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := ReadWorkbook(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, []string{"RUT", "Nombre", "Estado"}, res.Table.Headers)
	require.Len(t, res.Table.Rows, 2)
	assert.Equal(t, []string{"9.876.543-2", "Luis Rojas", ""}, res.Table.Rows[1])
	assert.Empty(t, res.Warnings)
}

func TestReadWorkbook_NotAWorkbook(t *testing.T) {
	_, err := ReadWorkbookBytes([]byte("not a zip"))
	assert.Error(t, err)
}

func TestReadTable_SniffsContent(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"RUT", "Estado"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"12.345.678-9", "Activo"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := ReadTable(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "xlsx", res.Encoding)
	require.Len(t, res.Table.Rows, 1)

	res, err = ReadTable([]byte("RUT;Estado\n12.345.678-9;Activo\n"))
	require.NoError(t, err)
	assert.Equal(t, ';', res.Delimiter)
	assert.Equal(t, []string{"RUT", "Estado"}, res.Table.Headers)

	_, err = ReadTable([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00})
	assert.ErrorIs(t, err, ErrLegacyWorkbook)
}
