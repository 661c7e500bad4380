package csvfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/visitor-sync/internal/common"
	"github.com/Veraticus/visitor-sync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []model.Record
		wantErr bool
	}{
		{
			name:  "header and rows",
			input: "ID,NAME,CURRENT\n119,Hall A,42\n999,Unknown,5\n121,Hall C,7\n",
			want: []model.Record{
				{"ID": "119", "NAME": "Hall A", "CURRENT": "42"},
				{"ID": "999", "NAME": "Unknown", "CURRENT": "5"},
				{"ID": "121", "NAME": "Hall C", "CURRENT": "7"},
			},
		},
		{
			name:  "values and headers are trimmed",
			input: " ID , CURRENT \n 120 ,  8 \n",
			want: []model.Record{
				{"ID": "120", "CURRENT": "8"},
			},
		},
		{
			name:  "byte order mark on first header",
			input: "\ufeffID,CURRENT\n122,3\n",
			want: []model.Record{
				{"ID": "122", "CURRENT": "3"},
			},
		},
		{
			name:  "byte order mark before quoted header",
			input: "\ufeff\"ID\",\"CURRENT\"\n\"119\",\"42\"\n",
			want: []model.Record{
				{"ID": "119", "CURRENT": "42"},
			},
		},
		{
			name:  "byte order mark only",
			input: "\ufeff",
			want:  []model.Record{},
		},
		{
			name:  "quoted fields with commas",
			input: "ID,NAME,CURRENT\n123,\"Hall, East\",12\n",
			want: []model.Record{
				{"ID": "123", "NAME": "Hall, East", "CURRENT": "12"},
			},
		},
		{
			name:  "blank lines are skipped",
			input: "ID,CURRENT\n\n119,1\n\n120,2\n",
			want: []model.Record{
				{"ID": "119", "CURRENT": "1"},
				{"ID": "120", "CURRENT": "2"},
			},
		},
		{
			name:  "header only",
			input: "ID,CURRENT\n",
			want:  []model.Record{},
		},
		{
			name:  "empty input",
			input: "",
			want:  []model.Record{},
		},
		{
			name:    "ragged row",
			input:   "ID,CURRENT\n119,1,extra\n",
			wantErr: true,
		},
		{
			name:    "bare quote",
			input:   "ID,CURRENT\n11\"9,1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Current_2024-03-05.csv")
	require.NoError(t, os.WriteFile(path, []byte("ID,CURRENT\n119,42\n"), 0600))

	records, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []model.Record{{"ID": "119", "CURRENT": "42"}}, records)
}

func TestParseFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ParseFile(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrParse)

	broken := filepath.Join(dir, "broken.csv")
	require.NoError(t, os.WriteFile(broken, []byte("ID,CURRENT\n119\n"), 0600))

	_, err = ParseFile(broken)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrParse)
	assert.Contains(t, err.Error(), "broken.csv")
}
