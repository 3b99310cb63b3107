package scores

import (
	"context"
	"log/slog"
	"strings"

	"schoolops/internal/domain/audit"
	"schoolops/internal/domain/directory"
	"schoolops/internal/domain/ids"
	"schoolops/internal/platform/docstore"
	"schoolops/internal/platform/validation"
)

const Kind docstore.Kind = "scores"

type Service struct {
	store docstore.Gateway
}

func NewService(store docstore.Gateway) *Service {
	return &Service{store: store}
}

// BulkUpdateScores imports one subject's scores for a class. Every row is either
// written or reported back with a reason. Re-importing an Approved score refreshes
// its numbers and keeps it Approved; all other writes leave the score in Draft.
func (s *Service) BulkUpdateScores(ctx context.Context, input BulkInput, actorID ids.UserID) (BulkResult, error) {
	input.ClassIdentifier = strings.TrimSpace(input.ClassIdentifier)
	input.Subject = strings.TrimSpace(input.Subject)
	input.Session = strings.TrimSpace(input.Session)
	input.Term = strings.TrimSpace(input.Term)
	if err := validation.Struct(input); err != nil {
		return BulkResult{}, err
	}
	subject := ids.SubjectID(input.Subject)

	var result BulkResult
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Reader, batch *docstore.Batch) error {
		actor, err := directory.RequireRole(ctx, tx, actorID, directory.RoleAdmin, directory.RoleTeacher)
		if err != nil {
			return err
		}
		known, err := docstore.Exists(ctx, tx, directory.KindSubjects, input.Subject)
		if err != nil {
			return err
		}
		if !known {
			return ErrUnknownSubject.Withf("subject %s is not in the catalog", input.Subject)
		}
		teacherID, err := resolveTeacher(ctx, tx, actor)
		if err != nil {
			return err
		}

		students, err := directory.StudentsByID(ctx, tx, rowStudentIDs(input.Rows))
		if err != nil {
			return err
		}
		accepted, rejected := classifyRows(input.Rows, input.ClassIdentifier, students)
		result = BulkResult{Rejected: rejected}

		existing, err := existingScores(ctx, tx, input.ClassIdentifier, subject, input.Session, input.Term)
		if err != nil {
			return err
		}

		for _, row := range accepted {
			key := ids.ScoreKey(row.student.ID, input.ClassIdentifier, subject, input.Session, input.Term)
			total := row.ca + row.exam
			if prev, ok := existing[key]; ok {
				status := StatusDraft
				if prev.Status == StatusApproved {
					status = StatusApproved
				}
				batch.Update(Kind, string(key), map[string]any{
					"caScore":    row.ca,
					"examScore":  row.exam,
					"totalScore": total,
					"status":     status,
				}, "updatedAt")
				result.Updated++
				continue
			}
			batch.Create(Kind, string(key), Score{
				ID:         key,
				StudentID:  row.student.ID,
				Subject:    subject,
				Class:      input.ClassIdentifier,
				Session:    input.Session,
				Term:       input.Term,
				TeacherID:  teacherID,
				CAScore:    row.ca,
				ExamScore:  row.exam,
				TotalScore: total,
				Status:     StatusDraft,
			}, "updatedAt")
			result.Created++
		}

		if batch.Len() == 0 {
			return nil
		}
		audit.Stage(ctx, batch, string(actorID), audit.ActionScoresImported, "subject", input.Subject, nil, map[string]any{
			"class": input.ClassIdentifier, "session": input.Session, "term": input.Term,
			"created": result.Created, "updated": result.Updated, "rejected": len(result.Rejected),
		})
		return nil
	})
	if err != nil {
		return BulkResult{}, err
	}

	for _, r := range result.Rejected {
		slog.Warn("score row rejected", "class", input.ClassIdentifier, "subject", input.Subject, "row", r.Row, "student", r.StudentID, "reason", r.Reason)
	}
	slog.Info("scores imported", "class", input.ClassIdentifier, "subject", input.Subject,
		"created", result.Created, "updated", result.Updated, "rejected", len(result.Rejected))
	return result, nil
}

// ApproveScores moves every Draft score of the subject for class, session and term to Approved.
func (s *Service) ApproveScores(ctx context.Context, input ApproveInput, actorID ids.UserID) (ApproveResult, error) {
	if err := validation.Struct(input); err != nil {
		return ApproveResult{}, err
	}
	var result ApproveResult
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Reader, batch *docstore.Batch) error {
		if _, err := directory.RequireRole(ctx, tx, actorID, directory.RoleAdmin); err != nil {
			return err
		}
		drafts, err := docstore.LoadAll[Score](ctx, tx, docstore.From(Kind).
			Where("class", input.ClassIdentifier).
			Where("subject", input.Subject).
			Where("session", input.Session).
			Where("term", input.Term).
			Where("status", StatusDraft))
		if err != nil {
			return err
		}
		result = ApproveResult{Approved: len(drafts)}
		if len(drafts) == 0 {
			return nil
		}
		for _, sc := range drafts {
			batch.Update(Kind, string(sc.ID), map[string]any{"status": StatusApproved, "approvedBy": actorID}, "updatedAt")
		}
		audit.Stage(ctx, batch, string(actorID), audit.ActionScoresApproved, "subject", input.Subject, nil, map[string]any{
			"class": input.ClassIdentifier, "session": input.Session, "term": input.Term, "approved": len(drafts),
		})
		return nil
	})
	if err != nil {
		return ApproveResult{}, err
	}
	return result, nil
}

// ListScores returns a class's scores for session and term, optionally one subject only.
func (s *Service) ListScores(ctx context.Context, class, session, term, subject string) ([]Score, error) {
	q := docstore.From(Kind).Where("class", class).Where("session", session).Where("term", term)
	if subject != "" {
		q = q.Where("subject", subject)
	}
	return docstore.LoadAll[Score](ctx, s.store, q.OrderBy("subject").OrderBy("studentId"))
}

// ClassScores loads every score recorded for class, session and term.
func ClassScores(ctx context.Context, r docstore.Reader, class, session, term string) ([]Score, error) {
	return docstore.LoadAll[Score](ctx, r, docstore.From(Kind).
		Where("class", class).
		Where("session", session).
		Where("term", term))
}

// resolveTeacher picks the teacher recorded on new scores: the actor when they teach,
// otherwise the first teacher on record.
func resolveTeacher(ctx context.Context, r docstore.Reader, actor directory.User) (ids.UserID, error) {
	if actor.Role == directory.RoleTeacher {
		return actor.ID, nil
	}
	teacher, ok, err := directory.AnyTeacher(ctx, r)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoTeacher
	}
	return teacher.ID, nil
}

func existingScores(ctx context.Context, r docstore.Reader, class string, subject ids.SubjectID, session, term string) (map[ids.ScoreID]Score, error) {
	current, err := docstore.LoadAll[Score](ctx, r, docstore.From(Kind).
		Where("class", class).
		Where("subject", subject).
		Where("session", session).
		Where("term", term))
	if err != nil {
		return nil, err
	}
	out := make(map[ids.ScoreID]Score, len(current))
	for _, sc := range current {
		out[sc.ID] = sc
	}
	return out, nil
}
