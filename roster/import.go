package roster

import (
	"strings"
	"unicode"

	"classroll/models"
)

// ImportReport counts the lines taken and dropped by ParseImport.
type ImportReport struct {
	Accepted int `json:"accepted"`
	Skipped  int `json:"skipped"`
}

// ParseImport reads the external "name,+|-" format. Lines that do not have
// exactly two fields, whose name is empty or contains a digit, or whose flag
// is not + or - are dropped. Blank lines are ignored without being counted.
func ParseImport(raw string) ([]models.Student, ImportReport) {
	var (
		students []models.Student
		report   ImportReport
	)

	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		st, ok := parseImportLine(line)
		if !ok {
			report.Skipped++
			continue
		}
		st.Number = len(students) + 1
		students = append(students, st)
	}

	report.Accepted = len(students)
	return students, report
}

func parseImportLine(line string) (models.Student, bool) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return models.Student{}, false
	}

	name := strings.TrimSpace(parts[0])
	flag := strings.TrimSpace(parts[1])
	if name == "" || strings.IndexFunc(name, unicode.IsDigit) >= 0 {
		return models.Student{}, false
	}
	if flag != "+" && flag != "-" {
		return models.Student{}, false
	}
	return models.Student{Name: name, IsPresent: flag == "+"}, true
}

// LoadStudents puts already-numbered students into the store as a Loaded class.
func (s *Store) LoadStudents(className string, students []models.Student) {
	s.phase = Loaded
	s.className = className
	s.students = make([]*models.Student, 0, len(students))
	for i := range students {
		st := students[i]
		s.students = append(s.students, &st)
	}
	s.renumber()
}
