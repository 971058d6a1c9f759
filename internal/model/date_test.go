package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	want := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{"date only", `"2026-10-01"`},
		{"timestamp", `"2026-10-01T15:04:05Z"`},
		{"timestamp with offset keeps its day", `"2026-10-01T01:00:00+03:00"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, json.Unmarshal([]byte(tt.input), &d))
			assert.Equal(t, want, d.Time)
		})
	}

	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"01/10/2026"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20261001`), &d))
}

func TestCompileReportRequest_DateFields(t *testing.T) {
	var req CompileReportRequest
	require.NoError(t, json.Unmarshal([]byte(`{"report_type":"ADHOC","period_start":"2026-10-01","period_end":"2026-10-15"}`), &req))

	require.NotNil(t, req.PeriodStart)
	assert.Equal(t, time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC), *req.PeriodEnd.TimeOrNil())

	out, err := json.Marshal(req.PeriodStart)
	require.NoError(t, err)
	assert.Equal(t, `"2026-10-01"`, string(out))

	var empty CompileReportRequest
	require.NoError(t, json.Unmarshal([]byte(`{"report_type":"DAILY"}`), &empty))
	assert.Nil(t, empty.PeriodStart.TimeOrNil())
}
