package directory

import "schoolops/internal/platform/docstore"

const (
	KindStudents docstore.Kind = "students"
	KindStaff    docstore.Kind = "staff"
	KindUsers    docstore.Kind = "users"
	KindSubjects docstore.Kind = "subjects"
)

const (
	StudentActive    = "Active"
	StudentInactive  = "Inactive"
	StudentGraduated = "Graduated"

	StaffActive   = "active"
	StaffInactive = "inactive"

	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleTeacher    = "teacher"
	RoleStudent    = "student"
	RoleParent     = "parent"
)

var Roles = []string{RoleAdmin, RoleAccountant, RoleTeacher, RoleStudent, RoleParent}
