package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTableAlignsWideText(t *testing.T) {
	headers := []string{"Activity", "Count", "Avg"}
	rows := [][]string{
		{"Feeding", "12", "20.5 min"},
		{"授乳", "3", "-"},
	}

	lines := formatTable(headers, rows, map[int]bool{1: true})
	require.Len(t, lines, 3)
	assert.Equal(t, "Activity  Count  Avg", lines[0])
	assert.Equal(t, "Feeding      12  20.5 min", lines[1])
	assert.Equal(t, "授乳          3  -", lines[2])
}

func TestFormatTableEmpty(t *testing.T) {
	assert.Nil(t, formatTable(nil, nil, nil))
}
