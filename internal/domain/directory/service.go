package directory

import (
	"context"

	"schoolops/internal/platform/docstore"
	"schoolops/internal/platform/validation"
)

// Service maintains the people and subject records the engines read. It is plain
// record keeping used by seeding, tooling and tests.
type Service struct {
	store docstore.Gateway
}

func NewService(store docstore.Gateway) *Service {
	return &Service{store: store}
}

func (s *Service) SaveStudents(ctx context.Context, students ...Student) error {
	return save(ctx, s.store, KindStudents, students, func(st Student) string { return string(st.ID) })
}

func (s *Service) SaveStaff(ctx context.Context, staff ...Staff) error {
	return save(ctx, s.store, KindStaff, staff, func(st Staff) string { return string(st.ID) })
}

func (s *Service) SaveUsers(ctx context.Context, users ...User) error {
	return save(ctx, s.store, KindUsers, users, func(u User) string { return string(u.ID) })
}

func (s *Service) SaveSubjects(ctx context.Context, subjects ...Subject) error {
	return save(ctx, s.store, KindSubjects, subjects, func(sub Subject) string { return string(sub.ID) })
}

func (s *Service) Students(ctx context.Context, class string) ([]Student, error) {
	return StudentsInClass(ctx, s.store, class)
}

func (s *Service) Subjects(ctx context.Context) ([]Subject, error) {
	return Subjects(ctx, s.store)
}

func save[T any](ctx context.Context, store docstore.Gateway, kind docstore.Kind, items []T, key func(T) string) error {
	if len(items) == 0 {
		return nil
	}
	batch := docstore.NewBatch()
	for _, item := range items {
		if err := validation.Struct(item); err != nil {
			return err
		}
		batch.Set(kind, key(item), item, "updatedAt")
	}
	return store.Commit(ctx, batch)
}
