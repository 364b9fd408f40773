package employee

import "errors"

var (
	ErrNotFound      = errors.New("employee not found")
	ErrAlreadyExists = errors.New("employee with this id already exists")
	ErrMissingID     = errors.New("employee id is required")
)
