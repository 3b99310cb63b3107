package results

import (
	"sort"

	"schoolops/internal/domain/directory"
	"schoolops/internal/domain/ids"
	"schoolops/internal/domain/scores"
)

// classData is everything one results run reads before computing.
type classData struct {
	students []directory.Student
	subjects []directory.Subject
	scores   []scores.Score
	scale    GradingScale
	hasScale bool
}

// validate checks preconditions in a fixed order and returns the first failure.
func (d classData) validate(class string) (map[ids.StudentID]map[ids.SubjectID]scores.Score, error) {
	if len(d.students) == 0 {
		return nil, ErrNoStudents.Withf("no students found in %s", class)
	}
	if len(d.subjects) == 0 {
		return nil, ErrNoSubjects
	}

	enrolled := make(map[ids.StudentID]bool, len(d.students))
	for _, st := range d.students {
		enrolled[st.ID] = true
	}
	byStudent := make(map[ids.StudentID]map[ids.SubjectID]scores.Score, len(d.students))
	for _, sc := range d.scores {
		if !enrolled[sc.StudentID] {
			continue
		}
		if byStudent[sc.StudentID] == nil {
			byStudent[sc.StudentID] = map[ids.SubjectID]scores.Score{}
		}
		byStudent[sc.StudentID][sc.Subject] = sc
	}

	for _, st := range d.students {
		own := byStudent[st.ID]
		for _, sub := range d.subjects {
			if _, ok := own[sub.ID]; !ok {
				return nil, ErrMissingScore.Withf("%s (%s) has no score for %s", st.Name, st.ID, sub.Name)
			}
		}
		for _, subjectID := range sortedSubjects(own) {
			if own[subjectID].Status != scores.StatusApproved {
				return nil, ErrUnapprovedScore.Withf("%s (%s) has an unapproved score for %s", st.Name, st.ID, subjectName(d.subjects, subjectID))
			}
		}
	}

	if !d.hasScale {
		return nil, ErrScaleNotConfigured
	}
	return byStudent, nil
}

// compute builds one ranked report card per student. Subjects are taken from the
// catalog, so the average divides by the catalog size.
func (d classData) compute(byStudent map[ids.StudentID]map[ids.SubjectID]scores.Score, class, session, term string) []ReportCard {
	cards := make([]ReportCard, 0, len(d.students))
	for _, st := range d.students {
		own := byStudent[st.ID]
		card := ReportCard{
			StudentID:   st.ID,
			StudentName: st.Name,
			Class:       class,
			Session:     session,
			Term:        term,
			Subjects:    make([]SubjectResult, 0, len(d.subjects)),
			ClassSize:   len(d.students),
		}
		for _, sub := range d.subjects {
			sc := own[sub.ID]
			card.Subjects = append(card.Subjects, SubjectResult{
				Subject:    sub.ID,
				Name:       sub.Name,
				CAScore:    sc.CAScore,
				ExamScore:  sc.ExamScore,
				TotalScore: sc.TotalScore,
				Grade:      LookupGrade(d.scale, sc.TotalScore),
			})
			card.TotalMarks += sc.TotalScore
		}
		// The grade uses the exact quotient; only the stored figures are rounded.
		average := card.TotalMarks / float64(len(d.subjects))
		card.OverallGrade = LookupGrade(d.scale, average)
		card.TotalMarks = round2(card.TotalMarks)
		card.Average = round2(average)
		cards = append(cards, card)
	}
	Rank(cards)
	return cards
}

// Rank orders cards by average, highest first, breaking ties by student id, and
// assigns ranks 1..n in that order. Equal averages get distinct ranks.
func Rank(cards []ReportCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Average != cards[j].Average {
			return cards[i].Average > cards[j].Average
		}
		return cards[i].StudentID < cards[j].StudentID
	})
	for i := range cards {
		cards[i].ClassRank = i + 1
	}
}

func sortedSubjects(own map[ids.SubjectID]scores.Score) []ids.SubjectID {
	out := make([]ids.SubjectID, 0, len(own))
	for id := range own {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func subjectName(subjects []directory.Subject, id ids.SubjectID) string {
	for _, sub := range subjects {
		if sub.ID == id {
			return sub.Name
		}
	}
	return string(id)
}
