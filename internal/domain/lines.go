package domain

// CanonicalLines are the five assembly lines every prediction is keyed by,
// in fixed output order.
var CanonicalLines = []string{
	"HighRange_1",
	"HighRange_2",
	"MediumRange_1",
	"MediumRange_2",
	"MediumRange_3",
}

// lineAliases maps both naming conventions seen in plant data (simulation
// names and master-data names) to the canonical line identifier.
var lineAliases = map[string]string{
	"HighRange_Line1": "HighRange_1",
	"HighRange_1":     "HighRange_1",
	"HighRange_Line2": "HighRange_2",
	"HighRange_2":     "HighRange_2",
	"MedRange_Line1":  "MediumRange_1",
	"MediumRange_1":   "MediumRange_1",
	"MedRange_Line2":  "MediumRange_2",
	"MediumRange_2":   "MediumRange_2",
	"MedRange_Line3":  "MediumRange_3",
	"MediumRange_3":   "MediumRange_3",
}

// masterLineNames maps canonical line identifiers to master-data names.
var masterLineNames = map[string]string{
	"HighRange_1":   "HighRange_Line1",
	"HighRange_2":   "HighRange_Line2",
	"MediumRange_1": "MedRange_Line1",
	"MediumRange_2": "MedRange_Line2",
	"MediumRange_3": "MedRange_Line3",
}

// CanonicalLineName normalizes a line identifier from either naming
// convention. Unknown names are returned unchanged.
func CanonicalLineName(name string) string {
	if c, ok := lineAliases[name]; ok {
		return c
	}
	return name
}

// MasterLineName returns the master-data name for a canonical line.
// Unknown lines return the empty string.
func MasterLineName(canonical string) string {
	return masterLineNames[canonical]
}

// LineMatches reports whether a record's line identifier resolves to the
// given canonical line.
func LineMatches(recordLine, canonical string) bool {
	return CanonicalLineName(recordLine) == canonical
}
