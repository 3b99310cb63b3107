package results

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolops/internal/domain/directory"
	"schoolops/internal/domain/fault"
	"schoolops/internal/domain/ids"
	"schoolops/internal/domain/scores"
	"schoolops/internal/platform/docstore/memstore"
)

const (
	session = "2024-2025"
	term    = "First Term"
)

type fixture struct {
	svc    *Service
	scores *scores.Service
	store  *memstore.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	dir := directory.NewService(store)
	require.NoError(t, dir.SaveUsers(ctx,
		directory.User{ID: "admin", DisplayName: "Admin", Role: directory.RoleAdmin},
		directory.User{ID: "t1", DisplayName: "Teacher", Role: directory.RoleTeacher},
		directory.User{ID: "bursar", DisplayName: "Bursar", Role: directory.RoleAccountant},
	))
	require.NoError(t, dir.SaveStudents(ctx,
		directory.Student{ID: "s2", Name: "Bola", Class: "JSS1", Status: directory.StudentActive},
		directory.Student{ID: "s1", Name: "Ada", Class: "JSS1", Status: directory.StudentActive},
		directory.Student{ID: "s3", Name: "Chi", Class: "JSS1", Status: directory.StudentActive},
	))
	require.NoError(t, dir.SaveSubjects(ctx,
		directory.Subject{ID: "math", Name: "Mathematics"},
		directory.Subject{ID: "eng", Name: "English"},
	))
	return fixture{svc: NewService(store), scores: scores.NewService(store), store: store}
}

func (fx fixture) saveScale(t *testing.T) {
	t.Helper()
	_, err := fx.svc.SaveGradingScale(context.Background(), append([]Band(nil), scale.Bands...), "admin")
	require.NoError(t, err)
}

func (fx fixture) importScores(t *testing.T, subject string, approve bool, rows map[ids.StudentID][2]float64) {
	t.Helper()
	ctx := context.Background()
	in := scores.BulkInput{ClassIdentifier: "JSS1", Subject: subject, Session: session, Term: term}
	for id, v := range rows {
		ca, exam := v[0], v[1]
		in.Rows = append(in.Rows, scores.Row{StudentID: string(id), CAScore: &ca, ExamScore: &exam})
	}
	res, err := fx.scores.BulkUpdateScores(ctx, in, "t1")
	require.NoError(t, err)
	require.Empty(t, res.Rejected)
	if approve {
		_, err = fx.scores.ApproveScores(ctx, scores.ApproveInput{ClassIdentifier: "JSS1", Subject: subject, Session: session, Term: term}, "admin")
		require.NoError(t, err)
	}
}

func jss1() GenerateInput {
	return GenerateInput{ClassIdentifier: "JSS1", Session: session, Term: term}
}

func TestGenerateResultsRanksAndGrades(t *testing.T) {
	fx := newFixture(t)
	fx.saveScale(t)
	fx.importScores(t, "math", true, map[ids.StudentID][2]float64{"s1": {35, 55}, "s2": {30, 60}, "s3": {20, 30}})
	fx.importScores(t, "eng", true, map[ids.StudentID][2]float64{"s1": {40, 50}, "s2": {35, 55}, "s3": {25, 40}})
	ctx := context.Background()

	res, err := fx.svc.GenerateResults(ctx, jss1(), "admin")
	require.NoError(t, err)
	assert.Equal(t, 3, res.GeneratedCount)
	assert.Equal(t, "JSS1", res.Class)
	assert.NotEmpty(t, res.GenerationID)

	cards, err := fx.svc.ReportCards(ctx, "JSS1", session, term)
	require.NoError(t, err)
	require.Len(t, cards, 3)

	// s1 and s2 both average 90; the lower student id ranks first.
	assert.Equal(t, ids.StudentID("s1"), cards[0].StudentID)
	assert.Equal(t, 1, cards[0].ClassRank)
	assert.Equal(t, ids.StudentID("s2"), cards[1].StudentID)
	assert.Equal(t, 2, cards[1].ClassRank)
	assert.Equal(t, 90.0, cards[0].Average)
	assert.Equal(t, 90.0, cards[1].Average)
	assert.Equal(t, 180.0, cards[0].TotalMarks)
	assert.Equal(t, "A", cards[0].OverallGrade)

	chi := cards[2]
	assert.Equal(t, 3, chi.ClassRank)
	assert.Equal(t, 57.5, chi.Average)
	assert.Equal(t, "C", chi.OverallGrade)
	require.Len(t, chi.Subjects, 2)
	assert.Equal(t, "English", chi.Subjects[0].Name)
	assert.Equal(t, "B", chi.Subjects[0].Grade)
	assert.Equal(t, "C", chi.Subjects[1].Grade)

	again, err := fx.svc.GenerateResults(ctx, jss1(), "admin")
	require.NoError(t, err)
	assert.NotEqual(t, res.GenerationID, again.GenerationID)
	assert.Equal(t, 6, fx.store.Count(KindReportCards))

	latest, err := fx.svc.ReportCards(ctx, "JSS1", session, term)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	for i := range latest {
		assert.Equal(t, again.GenerationID, latest[i].GenerationID)
		assert.Equal(t, cards[i].StudentID, latest[i].StudentID, "ranking must not change between runs")
		assert.Equal(t, cards[i].ClassRank, latest[i].ClassRank)
	}

	one, err := fx.svc.ReportCard(ctx, latest[0].ID)
	require.NoError(t, err)
	assert.Equal(t, latest[0].StudentName, one.StudentName)
}

func TestGenerateResultsAllOrNothing(t *testing.T) {
	fx := newFixture(t)
	fx.saveScale(t)
	fx.importScores(t, "math", true, map[ids.StudentID][2]float64{"s1": {35, 55}, "s2": {30, 60}, "s3": {20, 30}})
	fx.importScores(t, "eng", true, map[ids.StudentID][2]float64{"s1": {40, 50}, "s2": {35, 55}})

	_, err := fx.svc.GenerateResults(context.Background(), jss1(), "admin")
	require.ErrorIs(t, err, ErrMissingScore)
	assert.Contains(t, err.Error(), "Chi")
	assert.Contains(t, err.Error(), "English")
	assert.Equal(t, 0, fx.store.Count(KindReportCards))
}

func TestGenerateResultsRequiresApproval(t *testing.T) {
	fx := newFixture(t)
	fx.saveScale(t)
	fx.importScores(t, "math", true, map[ids.StudentID][2]float64{"s1": {35, 55}, "s2": {30, 60}, "s3": {20, 30}})
	fx.importScores(t, "eng", false, map[ids.StudentID][2]float64{"s1": {40, 50}, "s2": {35, 55}, "s3": {25, 40}})

	_, err := fx.svc.GenerateResults(context.Background(), jss1(), "admin")
	require.ErrorIs(t, err, ErrUnapprovedScore)
	assert.Contains(t, err.Error(), "Ada")
	assert.Equal(t, 0, fx.store.Count(KindReportCards))
}

func TestGenerateResultsPreconditionOrder(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.GenerateResults(ctx, GenerateInput{ClassIdentifier: "SS3", Session: session, Term: term}, "admin")
	assert.ErrorIs(t, err, ErrNoStudents)

	_, err = fx.svc.GenerateResults(ctx, jss1(), "admin")
	assert.ErrorIs(t, err, ErrMissingScore)

	fx.importScores(t, "math", true, map[ids.StudentID][2]float64{"s1": {1, 1}, "s2": {1, 1}, "s3": {1, 1}})
	fx.importScores(t, "eng", true, map[ids.StudentID][2]float64{"s1": {1, 1}, "s2": {1, 1}, "s3": {1, 1}})
	_, err = fx.svc.GenerateResults(ctx, jss1(), "admin")
	assert.ErrorIs(t, err, ErrScaleNotConfigured)
	assert.Equal(t, fault.PreconditionFailed, fault.KindOf(err))

	_, err = fx.svc.GenerateResults(ctx, jss1(), "bursar")
	assert.Equal(t, fault.Unauthorized, fault.KindOf(err))
}

func TestGenerateResultsWithoutSubjects(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	dir := directory.NewService(store)
	require.NoError(t, dir.SaveUsers(ctx, directory.User{ID: "admin", DisplayName: "Admin", Role: directory.RoleAdmin}))
	require.NoError(t, dir.SaveStudents(ctx, directory.Student{ID: "s1", Name: "Ada", Class: "JSS1", Status: directory.StudentActive}))

	_, err := NewService(store).GenerateResults(ctx, jss1(), "admin")
	assert.ErrorIs(t, err, ErrNoSubjects)
}

func TestGenerateResultsCommitFailure(t *testing.T) {
	fx := newFixture(t)
	fx.saveScale(t)
	fx.importScores(t, "math", true, map[ids.StudentID][2]float64{"s1": {35, 55}, "s2": {30, 60}, "s3": {20, 30}})
	fx.importScores(t, "eng", true, map[ids.StudentID][2]float64{"s1": {40, 50}, "s2": {35, 55}, "s3": {25, 40}})
	fx.store.FailNextCommit(assert.AnError)

	_, err := fx.svc.GenerateResults(context.Background(), jss1(), "admin")
	require.Error(t, err)
	assert.Equal(t, 0, fx.store.Count(KindReportCards))

	_, err = fx.svc.ReportCards(context.Background(), "JSS1", session, term)
	assert.ErrorIs(t, err, ErrNoReportCards)
}

func TestSaveGradingScaleValidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SaveGradingScale(ctx, []Band{{Grade: "A", MinScore: 80, MaxScore: 70}}, "admin")
	assert.Equal(t, fault.Validation, fault.KindOf(err))

	_, err = fx.svc.SaveGradingScale(ctx, []Band{
		{Grade: "A", MinScore: 70, MaxScore: 100},
		{Grade: "B", MinScore: 60, MaxScore: 75},
	}, "admin")
	assert.ErrorIs(t, err, ErrOverlappingBands)

	_, err = fx.svc.SaveGradingScale(ctx, []Band{{Grade: "A", MinScore: 0, MaxScore: 100}}, "t1")
	assert.Equal(t, fault.Unauthorized, fault.KindOf(err))

	_, err = fx.svc.GradingScale(ctx)
	assert.ErrorIs(t, err, ErrScaleNotConfigured)

	fx.saveScale(t)
	saved, err := fx.svc.GradingScale(ctx)
	require.NoError(t, err)
	assert.Len(t, saved.Bands, 5)
	assert.Equal(t, "admin", saved.UpdatedBy)
}

func TestSaveGradingScaleLeavesInputUntouched(t *testing.T) {
	fx := newFixture(t)
	bands := []Band{{Grade: " A ", MinScore: 0, MaxScore: 100}}

	saved, err := fx.svc.SaveGradingScale(context.Background(), bands, "admin")
	require.NoError(t, err)
	assert.Equal(t, "A", saved.Bands[0].Grade)
	assert.Equal(t, " A ", bands[0].Grade)
}

func TestRank(t *testing.T) {
	cards := []ReportCard{
		{StudentID: "b", Average: 90},
		{StudentID: "c", Average: 95},
		{StudentID: "a", Average: 90},
	}
	Rank(cards)
	got := []ids.StudentID{cards[0].StudentID, cards[1].StudentID, cards[2].StudentID}
	assert.Equal(t, []ids.StudentID{"c", "a", "b"}, got)
	assert.Equal(t, []int{1, 2, 3}, []int{cards[0].ClassRank, cards[1].ClassRank, cards[2].ClassRank})
}
