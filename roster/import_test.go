package roster

import (
	"testing"

	"classroll/models"

	"github.com/stretchr/testify/assert"
)

func TestParseImport(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       []models.Student
		wantReport ImportReport
	}{
		{
			name:       "digit and bad flag dropped",
			raw:        "Alice,+\n5Bob,-\nCleo,*\n",
			want:       []models.Student{{Number: 1, Name: "Alice", IsPresent: true}},
			wantReport: ImportReport{Accepted: 1, Skipped: 2},
		},
		{
			name: "numbers follow accepted order",
			raw:  "Ann,-\r\n1,Bob,+\r\n Cid , + \r\n",
			want: []models.Student{
				{Number: 1, Name: "Ann", IsPresent: false},
				{Number: 2, Name: "Cid", IsPresent: true},
			},
			wantReport: ImportReport{Accepted: 2, Skipped: 1},
		},
		{
			name:       "empty name",
			raw:        ",+",
			wantReport: ImportReport{Skipped: 1},
		},
		{
			name: "empty input",
			raw:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, report := ParseImport(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantReport, report)
		})
	}
}

func TestLoadStudents(t *testing.T) {
	s := NewStore(nil)
	s.LoadStudents("4B", []models.Student{{Number: 9, Name: "Ann"}, {Number: 9, Name: "Bob", IsPresent: true}})

	assert.Equal(t, Loaded, s.Phase())
	assert.Equal(t, []string{"1,Ann,-", "2,Bob,+"}, s.Serialize())
}
