package hive

import "github.com/xraph/hive/internal/errors"

// HiveError is the structured error returned by registries.
type HiveError = errors.HiveError

// ServiceError wraps a failure of a single service.
type ServiceError = errors.ServiceError

// Error codes.
const (
	CodeServiceNotFound     = errors.CodeServiceNotFound
	CodeAmbiguousService    = errors.CodeAmbiguousService
	CodeCircularDependency  = errors.CodeCircularDependency
	CodeInvalidRegistration = errors.CodeInvalidRegistration
	CodeLifecycleViolation  = errors.CodeLifecycleViolation
	CodeConstructionFailed  = errors.CodeConstructionFailed
	CodeRegistryClosed      = errors.CodeRegistryClosed
	CodeInvalidType         = errors.CodeInvalidType
	CodeStopFailed          = errors.CodeStopFailed
	CodeConfigError         = errors.CodeConfigError
)

// Re-export error constructors.
var (
	ErrServiceNotFound     = errors.ErrServiceNotFound
	ErrAmbiguousService    = errors.ErrAmbiguousService
	ErrCircularDependency  = errors.ErrCircularDependency
	ErrInvalidRegistration = errors.ErrInvalidRegistration
	ErrConstructionFailed  = errors.ErrConstructionFailed
	ErrInvalidType         = errors.ErrInvalidType
	ErrConfigError         = errors.ErrConfigError
	NewServiceError        = errors.NewServiceError
)

// Re-export sentinel errors for error comparison using errors.Is().
var (
	ErrServiceNotFoundSentinel     = errors.ErrServiceNotFoundSentinel
	ErrAmbiguousServiceSentinel    = errors.ErrAmbiguousServiceSentinel
	ErrCircularDependencySentinel  = errors.ErrCircularDependencySentinel
	ErrInvalidRegistrationSentinel = errors.ErrInvalidRegistrationSentinel
	ErrLifecycleViolationSentinel  = errors.ErrLifecycleViolationSentinel
	ErrConstructionFailedSentinel  = errors.ErrConstructionFailedSentinel
	ErrRegistryClosedSentinel      = errors.ErrRegistryClosedSentinel
	ErrInvalidTypeSentinel         = errors.ErrInvalidTypeSentinel
	ErrStopFailedSentinel          = errors.ErrStopFailedSentinel
	ErrConfigErrorSentinel         = errors.ErrConfigErrorSentinel
	ErrNilInstance                 = errors.ErrNilInstance
)

// Error predicates.
var (
	IsNotFound            = errors.IsNotFound
	IsAmbiguous           = errors.IsAmbiguous
	IsCircularDependency  = errors.IsCircularDependency
	IsInvalidRegistration = errors.IsInvalidRegistration
	IsLifecycleViolation  = errors.IsLifecycleViolation
	IsConstructionFailed  = errors.IsConstructionFailed
	IsRegistryClosed      = errors.IsRegistryClosed
	IsInvalidType         = errors.IsInvalidType
)
