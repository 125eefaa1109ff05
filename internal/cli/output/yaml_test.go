package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintYAML(t *testing.T) {
	row := struct {
		Name  string `yaml:"name"`
		State string `yaml:"state"`
	}{
		Name:  "GenerateFlowFile",
		State: "RUNNING",
	}

	var buf bytes.Buffer
	err := PrintYAML(&buf, row)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "name: GenerateFlowFile")
	assert.Contains(t, out, "state: RUNNING")
}

func TestPrintYAMLArray(t *testing.T) {
	rows := []struct {
		Name string `yaml:"name"`
	}{
		{Name: "GenerateFlowFile"},
		{Name: "LogAttribute"},
	}

	var buf bytes.Buffer
	err := PrintYAML(&buf, rows)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "- name: GenerateFlowFile")
	assert.Contains(t, out, "- name: LogAttribute")
}
