package rank

import "strconv"

// NotRankedLabel is the rendering of the not-ranked sentinel. It appears in
// exported spreadsheets, so the exact text is a compatibility contract.
const NotRankedLabel = "Out of Top 5"

// Rank is a 1-based position within a comparison set. The zero value is the
// not-ranked sentinel; a Rank is never negative.
type Rank int

// NotRanked marks a comment outside the tracked top N or one whose position
// could not be determined.
const NotRanked Rank = 0

// Ranked reports whether r holds a real position.
func (r Rank) Ranked() bool {
	return r > 0
}

// String renders the rank for persistence and export.
func (r Rank) String() string {
	if !r.Ranked() {
		return NotRankedLabel
	}
	return strconv.Itoa(int(r))
}
