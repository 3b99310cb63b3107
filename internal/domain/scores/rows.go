package scores

import (
	"strings"

	"schoolops/internal/domain/directory"
	"schoolops/internal/domain/ids"
	"schoolops/internal/platform/validation"
)

// acceptedRow is a row that passed every check, with its scores resolved.
type acceptedRow struct {
	index   int
	student directory.Student
	ca      float64
	exam    float64
}

// fieldReasons maps a failing row field to its rejection reason, in reporting order.
var fieldReasons = []struct {
	field  string
	reason string
}{
	{"studentId", ReasonInvalidStudentID},
	{"caScore", ReasonCAOutOfRange},
	{"examScore", ReasonExamOutOfRange},
}

// shapeReason returns the first structural problem with row, or "".
func shapeReason(row Row) string {
	fields := validation.Fields(row)
	for _, fr := range fieldReasons {
		if _, bad := fields[fr.field]; bad {
			return fr.reason
		}
	}
	return ""
}

// classifyRows splits rows into accepted and rejected. A row is accepted when it is
// well formed, names a student of class, and is the first row for that student.
func classifyRows(rows []Row, class string, students map[ids.StudentID]directory.Student) ([]acceptedRow, []Rejection) {
	var accepted []acceptedRow
	rejected := []Rejection{}
	seen := map[ids.StudentID]bool{}
	for i, row := range rows {
		row.StudentID = strings.TrimSpace(row.StudentID)
		reject := func(reason string) {
			rejected = append(rejected, Rejection{Row: i + 1, StudentID: row.StudentID, Reason: reason})
		}
		if reason := shapeReason(row); reason != "" {
			reject(reason)
			continue
		}
		id := ids.StudentID(row.StudentID)
		student, ok := students[id]
		if !ok || student.Class != class {
			reject(ReasonUnknownStudent)
			continue
		}
		if seen[id] {
			reject(ReasonDuplicateRow)
			continue
		}
		seen[id] = true
		accepted = append(accepted, acceptedRow{index: i + 1, student: student, ca: *row.CAScore, exam: *row.ExamScore})
	}
	return accepted, rejected
}

func rowStudentIDs(rows []Row) []ids.StudentID {
	out := make([]ids.StudentID, 0, len(rows))
	for _, row := range rows {
		if id := strings.TrimSpace(row.StudentID); id != "" {
			out = append(out, ids.StudentID(id))
		}
	}
	return out
}
