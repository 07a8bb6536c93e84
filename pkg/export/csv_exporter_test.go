package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	table := Table{
		Headers: []string{"Day", "Period", "Teacher"},
		Rows: []map[string]string{
			{"Day": "Monday", "Period": "1", "Teacher": "Ana Wijaya"},
			{"Day": "Monday", "Period": "2", "Teacher": "Budi Santoso"},
		},
	}

	data, err := NewCSVExporter().Render(table)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Period,Teacher", lines[0])
	assert.Equal(t, "Monday,1,Ana Wijaya", lines[1])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{})
	require.Error(t, err)
}

func TestCSVExporterMissingCellsStayEmpty(t *testing.T) {
	table := Table{
		Headers: []string{"Day", "Room"},
		Rows:    []map[string]string{{"Day": "Tuesday"}},
	}

	data, err := NewCSVExporter().Render(table)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Tuesday,\n")
}
