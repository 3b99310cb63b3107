package scores

import "schoolops/internal/domain/fault"

var (
	ErrUnknownSubject = fault.New(fault.NotFound, "unknown_subject", "subject is not in the catalog")
	ErrNoTeacher      = fault.New(fault.PreconditionFailed, "no_teacher", "no teacher is available to own imported scores")
)

const (
	ReasonInvalidStudentID = "invalid_student_id"
	ReasonUnknownStudent   = "unknown_student"
	ReasonDuplicateRow     = "duplicate_row"
	ReasonCAOutOfRange     = "ca_out_of_range"
	ReasonExamOutOfRange   = "exam_out_of_range"
)
