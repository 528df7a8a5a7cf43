package models

// Clazz represents a class as listed by a catalog
type Clazz struct {
	Name         string `json:"name"`                   // Class name, also the backing record key
	StudentCount int    `json:"studentCount,omitempty"` // Filled only when the roster is loaded
}

// Student represents a student in the active roster
type Student struct {
	Number    int    `json:"number"`    // 1-based position in the roster
	Name      string `json:"name"`      // Student name
	IsPresent bool   `json:"isPresent"` // Attendance flag, persisted as + or -
	Cooldown  int    `json:"cooldown"`  // Picks remaining before eligible again, not persisted
}

// PresenceFlag returns the persisted attendance marker.
func (s Student) PresenceFlag() string {
	if s.IsPresent {
		return "+"
	}
	return "-"
}
