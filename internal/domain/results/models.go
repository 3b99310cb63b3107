package results

import (
	"time"

	"schoolops/internal/domain/ids"
)

// NoGrade is returned when a score falls outside every configured band.
const NoGrade = "N/A"

type Band struct {
	Grade    string  `json:"grade" validate:"notblank"`
	MinScore float64 `json:"minScore" validate:"min=0,max=100"`
	MaxScore float64 `json:"maxScore" validate:"min=0,max=100,gtefield=MinScore"`
}

// GradingScale is the single, school-wide list of grade bands, kept in the order configured.
type GradingScale struct {
	Bands     []Band    `json:"bands" validate:"min=1,dive"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SubjectResult struct {
	Subject    ids.SubjectID `json:"subject"`
	Name       string        `json:"name"`
	CAScore    float64       `json:"caScore"`
	ExamScore  float64       `json:"examScore"`
	TotalScore float64       `json:"totalScore"`
	Grade      string        `json:"grade"`
}

type ReportCard struct {
	ID           ids.ReportCardID `json:"id"`
	GenerationID string           `json:"generationId"`
	StudentID    ids.StudentID    `json:"studentId"`
	StudentName  string           `json:"studentName"`
	Class        string           `json:"class"`
	Session      string           `json:"session"`
	Term         string           `json:"term"`
	Subjects     []SubjectResult  `json:"subjects"`
	TotalMarks   float64          `json:"totalMarks"`
	Average      float64          `json:"average"`
	OverallGrade string           `json:"overallGrade"`
	ClassRank    int              `json:"classRank"`
	ClassSize    int              `json:"classSize"`
	GeneratedAt  time.Time        `json:"generatedAt"`
}

type GenerateInput struct {
	ClassIdentifier string `json:"classIdentifier" validate:"notblank"`
	Session         string `json:"session" validate:"notblank"`
	Term            string `json:"term" validate:"notblank"`
}

type GenerateResult struct {
	GeneratedCount int    `json:"generatedCount"`
	Class          string `json:"class"`
	GenerationID   string `json:"generationId"`
}
