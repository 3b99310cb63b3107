package results

import "schoolops/internal/domain/fault"

var (
	ErrNoStudents         = fault.New(fault.PreconditionFailed, "no_students", "no students found in class")
	ErrNoSubjects         = fault.New(fault.PreconditionFailed, "no_subjects", "no subjects are configured")
	ErrMissingScore       = fault.New(fault.PreconditionFailed, "incomplete_scores", "a student is missing a score")
	ErrUnapprovedScore    = fault.New(fault.PreconditionFailed, "unapproved_scores", "a student has a score that is not approved")
	ErrScaleNotConfigured = fault.New(fault.PreconditionFailed, "grading_scale_not_configured", "no grading scale is configured")
	ErrOverlappingBands   = fault.New(fault.Validation, "overlapping_bands", "grade bands must not overlap")
	ErrReportCardNotFound = fault.New(fault.NotFound, "report_card_not_found", "report card not found")
	ErrNoReportCards      = fault.New(fault.NotFound, "report_cards_not_found", "no report cards have been generated for this class")
)
