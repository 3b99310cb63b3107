package directory

import "schoolops/internal/domain/fault"

var (
	ErrUserNotFound = fault.New(fault.Unauthorized, "unknown_actor", "acting user is not known")
	ErrForbidden    = fault.New(fault.Unauthorized, "forbidden", "acting user lacks the required role")
)
