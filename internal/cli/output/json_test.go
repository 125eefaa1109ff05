package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processorRow struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

func TestPrintJSON(t *testing.T) {
	row := processorRow{Name: "GenerateFlowFile", State: "RUNNING"}

	var buf bytes.Buffer
	err := PrintJSON(&buf, row)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"name": "GenerateFlowFile"`)
	assert.Contains(t, out, `"state": "RUNNING"`)
}

func TestPrintJSONCompact(t *testing.T) {
	row := processorRow{Name: "GenerateFlowFile", State: "RUNNING"}

	var buf bytes.Buffer
	err := PrintJSONCompact(&buf, row)
	require.NoError(t, err)

	// No indentation in the compact form.
	out := buf.String()
	assert.Contains(t, out, `"name":"GenerateFlowFile"`)
	assert.Contains(t, out, `"state":"RUNNING"`)
}

func TestPrintJSONArray(t *testing.T) {
	rows := []processorRow{
		{Name: "GenerateFlowFile", State: "RUNNING"},
		{Name: "LogAttribute", State: "STOPPED"},
	}

	var buf bytes.Buffer
	err := PrintJSON(&buf, rows)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"name": "GenerateFlowFile"`)
	assert.Contains(t, out, `"name": "LogAttribute"`)
}
