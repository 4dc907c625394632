package skin

import "errors"

var (
	// ErrBinding means the influence map or source geometry is missing or empty.
	ErrBinding = errors.New("skin: influence map or source geometry not set")
	// ErrSkeletonResolution means no skeleton was found above the geometry.
	ErrSkeletonResolution = errors.New("skin: no skeleton found above geometry")
	// ErrVertexCountMismatch means the source mesh changed size after binding.
	ErrVertexCountMismatch = errors.New("skin: source vertex count changed since binding")
	ErrInvalidWeight       = errors.New("skin: bone weight outside (0, 1]")
	ErrDuplicateInfluence  = errors.New("skin: bone already has an influence")
	ErrNormalCount         = errors.New("skin: normal count does not match position count")
)
