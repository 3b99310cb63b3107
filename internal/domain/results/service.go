package results

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"schoolops/internal/domain/audit"
	"schoolops/internal/domain/directory"
	"schoolops/internal/domain/ids"
	"schoolops/internal/domain/scores"
	"schoolops/internal/platform/docstore"
	"schoolops/internal/platform/validation"
)

type Service struct {
	store docstore.Gateway
}

func NewService(store docstore.Gateway) *Service {
	return &Service{store: store}
}

// GenerateResults computes graded, ranked report cards for a class. Either every
// student gets a card or, on the first failed check, none do. Each run writes a new
// generation of cards; earlier generations are kept.
func (s *Service) GenerateResults(ctx context.Context, input GenerateInput, actorID ids.UserID) (GenerateResult, error) {
	input.ClassIdentifier = strings.TrimSpace(input.ClassIdentifier)
	input.Session = strings.TrimSpace(input.Session)
	input.Term = strings.TrimSpace(input.Term)
	if err := validation.Struct(input); err != nil {
		return GenerateResult{}, err
	}
	if _, err := directory.RequireRole(ctx, s.store, actorID, directory.RoleAdmin, directory.RoleTeacher); err != nil {
		return GenerateResult{}, err
	}

	data, err := s.load(ctx, input)
	if err != nil {
		return GenerateResult{}, err
	}
	byStudent, err := data.validate(input.ClassIdentifier)
	if err != nil {
		return GenerateResult{}, err
	}
	cards := data.compute(byStudent, input.ClassIdentifier, input.Session, input.Term)

	generationID := uuid.NewString()
	batch := docstore.NewBatch()
	for i := range cards {
		cards[i].ID = ids.ReportCardID(uuid.NewString())
		cards[i].GenerationID = generationID
		batch.Create(KindReportCards, string(cards[i].ID), cards[i], "generatedAt")
	}
	audit.Stage(ctx, batch, string(actorID), audit.ActionResultsGenerated, "class", input.ClassIdentifier, nil, map[string]any{
		"session": input.Session, "term": input.Term, "generationId": generationID, "generatedCount": len(cards),
	})
	if err := s.store.Commit(ctx, batch); err != nil {
		return GenerateResult{}, err
	}

	slog.Info("results generated", "class", input.ClassIdentifier, "session", input.Session, "term", input.Term,
		"cards", len(cards), "generation", generationID)
	return GenerateResult{GeneratedCount: len(cards), Class: input.ClassIdentifier, GenerationID: generationID}, nil
}

// load reads the class, the subject catalog, the scores and the grading scale concurrently.
func (s *Service) load(ctx context.Context, input GenerateInput) (classData, error) {
	var data classData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.students, err = directory.StudentsInClass(gctx, s.store, input.ClassIdentifier)
		return err
	})
	g.Go(func() error {
		var err error
		data.subjects, err = directory.Subjects(gctx, s.store)
		return err
	})
	g.Go(func() error {
		var err error
		data.scores, err = scores.ClassScores(gctx, s.store, input.ClassIdentifier, input.Session, input.Term)
		return err
	})
	g.Go(func() error {
		var err error
		data.scale, data.hasScale, err = loadScale(gctx, s.store)
		return err
	})
	return data, g.Wait()
}

// SaveGradingScale replaces the school-wide grading scale.
func (s *Service) SaveGradingScale(ctx context.Context, bands []Band, actorID ids.UserID) (GradingScale, error) {
	bands = append([]Band(nil), bands...)
	for i := range bands {
		bands[i].Grade = strings.TrimSpace(bands[i].Grade)
	}
	scale := GradingScale{Bands: bands, UpdatedBy: string(actorID)}
	if err := validation.Struct(scale); err != nil {
		return GradingScale{}, err
	}
	if a, b, found := overlap(bands); found {
		return GradingScale{}, ErrOverlappingBands.Withf("bands %s (%v-%v) and %s (%v-%v) overlap",
			a.Grade, a.MinScore, a.MaxScore, b.Grade, b.MinScore, b.MaxScore)
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Reader, batch *docstore.Batch) error {
		if _, err := directory.RequireRole(ctx, tx, actorID, directory.RoleAdmin); err != nil {
			return err
		}
		previous, _, err := loadScale(ctx, tx)
		if err != nil {
			return err
		}
		batch.Set(KindSettings, gradingScaleID, scale, "updatedAt")
		audit.Stage(ctx, batch, string(actorID), audit.ActionGradingScaleSaved, "grading_scale", gradingScaleID, previous.Bands, scale.Bands)
		return nil
	})
	if err != nil {
		return GradingScale{}, err
	}
	return s.GradingScale(ctx)
}

func (s *Service) GradingScale(ctx context.Context) (GradingScale, error) {
	scale, ok, err := loadScale(ctx, s.store)
	if err != nil {
		return GradingScale{}, err
	}
	if !ok {
		return GradingScale{}, ErrScaleNotConfigured
	}
	return scale, nil
}

// ReportCards returns the latest generation of cards for class, session and term in rank order.
func (s *Service) ReportCards(ctx context.Context, class, session, term string) ([]ReportCard, error) {
	latest, err := docstore.LoadAll[ReportCard](ctx, s.store, docstore.From(KindReportCards).
		Where("class", class).
		Where("session", session).
		Where("term", term).
		OrderByDesc("generatedAt").
		Limit(1))
	if err != nil {
		return nil, err
	}
	if len(latest) == 0 {
		return nil, ErrNoReportCards.Withf("no report cards for %s %s %s", class, session, term)
	}
	return docstore.LoadAll[ReportCard](ctx, s.store, docstore.From(KindReportCards).
		Where("generationId", latest[0].GenerationID).
		OrderBy("classRank"))
}

func (s *Service) ReportCard(ctx context.Context, id ids.ReportCardID) (ReportCard, error) {
	card, err := docstore.Load[ReportCard](ctx, s.store, KindReportCards, string(id))
	if errors.Is(err, docstore.ErrNotFound) {
		return ReportCard{}, ErrReportCardNotFound.Withf("report card %s not found", id)
	}
	return card, err
}
