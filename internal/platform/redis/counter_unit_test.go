package redis

import (
	"testing"

	"github.com/phrazzld/studydeck-api/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fields  map[string]string
		want    stats.Summary
		wantErr bool
	}{
		{name: "empty hash", fields: map[string]string{}, want: stats.Summary{}},
		{
			name:   "full hash",
			fields: map[string]string{"total": "3", "passed": "2", "failed": "1", "q1": "1", "q5": "2"},
			want:   stats.Summary{Total: 3, Passed: 2, Failed: 1, ByQuality: [6]int64{0, 1, 0, 0, 0, 2}},
		},
		{name: "corrupt field", fields: map[string]string{"total": "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseSummary(tt.fields)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewCounter_NilClientPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewCounter(nil, "studydeck", nil) })
}
