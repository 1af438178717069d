package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		zero     bool
		unparsed string
	}{
		{"rfc3339", `"2024-03-10T12:00:00Z"`, false, ""},
		{"space separated", `"2024-03-10 12:00:00"`, false, ""},
		{"date only", `"2024-03-10"`, false, ""},
		{"null", `null`, true, ""},
		{"empty", `""`, true, ""},
		{"unrecognized", `"01/05/2024"`, true, "01/05/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.Equal(t, tt.zero, ts.IsZero())
			assert.Equal(t, tt.unparsed, ts.Unparsed())
		})
	}
}

func TestTimestamp_BadDateKeepsRowDecodable(t *testing.T) {
	var rows []PendingApproval
	err := json.Unmarshal([]byte(`[
		{"instance_id":5,"etape_id":2,"date_echeance":"01/05/2024"},
		{"instance_id":7,"etape_id":3,"date_echeance":"2024-05-01"}
	]`), &rows)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, rows[0].DueDate.IsZero())
	assert.False(t, rows[0].IsOverdue(time.Now()))
	assert.Equal(t, 2024, rows[1].DueDate.Year())
}

func TestTimestamp_RejectsNonString(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`42`), &ts))
}
