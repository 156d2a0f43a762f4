package common

import "errors"

var (
	ErrAnimationNotFound  = errors.New("animation not found")
	ErrJointCountMismatch = errors.New("joint count mismatch")
	ErrJointOrder         = errors.New("joint parent is not stored before its child")
	ErrInvalidJoint       = errors.New("invalid joint index")
	ErrInvalidIKChain     = errors.New("invalid ik chain")
	ErrInvalidSkin        = errors.New("invalid skin binding")
	ErrInvalidClip        = errors.New("invalid animation clip")
	ErrInvalidConfig      = errors.New("invalid animation config")
	ErrNilSkeleton        = errors.New("skeleton is nil")
	ErrNilClip            = errors.New("animation clip is nil")
	ErrNilInstance        = errors.New("animation instance is nil")
	ErrDuplicateInstance  = errors.New("animation instance already registered")
	ErrReleased           = errors.New("gpu resource already released")
)
