package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	table := NewTableData("Name", "Type", "State")

	assert.Equal(t, []string{"Name", "Type", "State"}, table.Headers())
	assert.Empty(t, table.Rows())

	table.AddRow("Gen", "GenerateFlowFile", "RUNNING")
	table.AddRow("Log", "LogAttribute", "STOPPED")

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Gen", "GenerateFlowFile", "RUNNING"}, rows[0])
	assert.Equal(t, []string{"Log", "LogAttribute", "STOPPED"}, rows[1])
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Name", "State")
	table.AddRow("Gen", "RUNNING")
	table.AddRow("Log", "STOPPED")

	var buf bytes.Buffer
	err := PrintTable(&buf, table)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "STATE")
	assert.Contains(t, output, "Gen")
	assert.Contains(t, output, "RUNNING")
	assert.Contains(t, output, "Log")
	assert.Contains(t, output, "STOPPED")
}

func TestSimpleTable(t *testing.T) {
	pairs := [][2]string{
		{"Server", "prod"},
		{"URL", "https://nifi.example.com:8443/nifi-api"},
	}

	var buf bytes.Buffer
	err := SimpleTable(&buf, pairs)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Server")
	assert.Contains(t, output, "prod")
	assert.Contains(t, output, "URL")
	assert.Contains(t, output, "nifi.example.com")
}
