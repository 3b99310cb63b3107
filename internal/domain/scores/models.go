package scores

import (
	"time"

	"schoolops/internal/domain/ids"
)

const (
	StatusDraft    = "Draft"
	StatusApproved = "Approved"

	MaxCAScore   = 40
	MaxExamScore = 60
)

type Score struct {
	ID         ids.ScoreID   `json:"id"`
	StudentID  ids.StudentID `json:"studentId"`
	Subject    ids.SubjectID `json:"subject"`
	Class      string        `json:"class"`
	Session    string        `json:"session"`
	Term       string        `json:"term"`
	TeacherID  ids.UserID    `json:"teacherId"`
	CAScore    float64       `json:"caScore"`
	ExamScore  float64       `json:"examScore"`
	TotalScore float64       `json:"totalScore"`
	Status     string        `json:"status"`
	ApprovedBy ids.UserID    `json:"approvedBy,omitempty"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Row is one line of a bulk score import. Scores are pointers so a missing value
// is told apart from zero.
type Row struct {
	StudentID string   `json:"studentId" validate:"notblank"`
	CAScore   *float64 `json:"caScore" validate:"required,min=0,max=40"`
	ExamScore *float64 `json:"examScore" validate:"required,min=0,max=60"`
}

type BulkInput struct {
	ClassIdentifier string `json:"classIdentifier" validate:"notblank"`
	Subject         string `json:"subject" validate:"notblank"`
	Session         string `json:"session" validate:"notblank"`
	Term            string `json:"term" validate:"notblank"`
	Rows            []Row  `json:"rows" validate:"min=1"`
}

// Rejection reports a row that was not imported.
type Rejection struct {
	Row       int    `json:"row"`
	StudentID string `json:"studentId"`
	Reason    string `json:"reason"`
}

type BulkResult struct {
	Created  int         `json:"created"`
	Updated  int         `json:"updated"`
	Rejected []Rejection `json:"rejected"`
}

type ApproveInput struct {
	ClassIdentifier string `json:"classIdentifier" validate:"notblank"`
	Subject         string `json:"subject" validate:"notblank"`
	Session         string `json:"session" validate:"notblank"`
	Term            string `json:"term" validate:"notblank"`
}

type ApproveResult struct {
	Approved int `json:"approved"`
}
