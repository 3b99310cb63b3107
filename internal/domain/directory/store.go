package directory

import (
	"context"
	"errors"

	"schoolops/internal/domain/ids"
	"schoolops/internal/platform/docstore"
)

// ActiveStudentsInClass returns Active students of class ordered by id.
func ActiveStudentsInClass(ctx context.Context, r docstore.Reader, class string) ([]Student, error) {
	return docstore.LoadAll[Student](ctx, r, docstore.From(KindStudents).
		Where("class", class).
		Where("status", StudentActive).
		OrderBy("id"))
}

// StudentsInClass returns every student of class regardless of status.
func StudentsInClass(ctx context.Context, r docstore.Reader, class string) ([]Student, error) {
	return docstore.LoadAll[Student](ctx, r, docstore.From(KindStudents).Where("class", class).OrderBy("id"))
}

// StudentsByID loads the given students; ids that do not exist are absent from the map.
func StudentsByID(ctx context.Context, r docstore.Reader, studentIDs []ids.StudentID) (map[ids.StudentID]Student, error) {
	values := make([]any, len(studentIDs))
	for i, id := range studentIDs {
		values[i] = id
	}
	students, err := docstore.LoadAll[Student](ctx, r, docstore.From(KindStudents).WhereIn("id", values...))
	if err != nil {
		return nil, err
	}
	out := make(map[ids.StudentID]Student, len(students))
	for _, s := range students {
		out[s.ID] = s
	}
	return out, nil
}

func ActiveStaff(ctx context.Context, r docstore.Reader) ([]Staff, error) {
	return docstore.LoadAll[Staff](ctx, r, docstore.From(KindStaff).Where("status", StaffActive).OrderBy("id"))
}

func LoadUser(ctx context.Context, r docstore.Reader, id ids.UserID) (User, error) {
	user, err := docstore.Load[User](ctx, r, KindUsers, string(id))
	if errors.Is(err, docstore.ErrNotFound) {
		return User{}, ErrUserNotFound.Withf("user %s is not known", id)
	}
	return user, err
}

// AnyTeacher returns the first teacher-role user by id, or false when there is none.
func AnyTeacher(ctx context.Context, r docstore.Reader) (User, bool, error) {
	teachers, err := docstore.LoadAll[User](ctx, r, docstore.From(KindUsers).Where("role", RoleTeacher).OrderBy("id").Limit(1))
	if err != nil || len(teachers) == 0 {
		return User{}, false, err
	}
	return teachers[0], true, nil
}

// Subjects returns the global subject catalog ordered by name.
func Subjects(ctx context.Context, r docstore.Reader) ([]Subject, error) {
	return docstore.LoadAll[Subject](ctx, r, docstore.From(KindSubjects).OrderBy("name"))
}

// RequireRole loads the actor and checks it holds one of roles.
func RequireRole(ctx context.Context, r docstore.Reader, actor ids.UserID, roles ...string) (User, error) {
	if actor == "" {
		return User{}, ErrUserNotFound
	}
	user, err := LoadUser(ctx, r, actor)
	if err != nil {
		return User{}, err
	}
	if !user.HasRole(roles...) {
		return User{}, ErrForbidden.Withf("user %s with role %q may not perform this action", actor, user.Role)
	}
	return user, nil
}
