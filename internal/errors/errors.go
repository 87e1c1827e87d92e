package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// Error code constants for structured errors
const (
	CodeServiceNotFound     = "SERVICE_NOT_FOUND"
	CodeAmbiguousService    = "AMBIGUOUS_SERVICE"
	CodeCircularDependency  = "CIRCULAR_DEPENDENCY"
	CodeInvalidRegistration = "INVALID_REGISTRATION"
	CodeLifecycleViolation  = "LIFECYCLE_VIOLATION"
	CodeConstructionFailed  = "CONSTRUCTION_FAILED"
	CodeRegistryClosed      = "REGISTRY_CLOSED"
	CodeInvalidType         = "INVALID_TYPE"
	CodeStopFailed          = "STOP_FAILED"
	CodeConfigError         = "CONFIG_ERROR"
)

// =============================================================================
// SERVICE ERRORS
// =============================================================================

// Standard registry errors
var (
	ErrNilInstance = errors.New("construction hook returned no instance")
	ErrNilCreate   = errors.New("definition has no construction hook")
)

// ServiceError wraps service-specific errors
type ServiceError struct {
	Service   string
	Operation string
	Err       error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s: %s: %v", e.Service, e.Operation, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface for ServiceError
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return (e.Service == "" || t.Service == "" || e.Service == t.Service) &&
		(e.Operation == "" || t.Operation == "" || e.Operation == t.Operation)
}

// NewServiceError creates a new service error
func NewServiceError(service, operation string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Err:       err,
	}
}

// =============================================================================
// HIVE ERROR (STRUCTURED ERROR)
// =============================================================================

// HiveError represents a structured error with context
type HiveError struct {
	Code      string
	Message   string
	Cause     error
	Timestamp time.Time
	Context   map[string]any
}

func (e *HiveError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *HiveError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is interface for HiveError.
// Compares by error code, allowing matching against sentinel errors.
func (e *HiveError) Is(target error) bool {
	t, ok := target.(*HiveError)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithContext adds context to the error
func (e *HiveError) WithContext(key string, value any) *HiveError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func newError(code, message string, cause error, ctx map[string]any) *HiveError {
	if ctx == nil {
		ctx = make(map[string]any)
	}
	return &HiveError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
		Context:   ctx,
	}
}

// ErrServiceNotFound creates a not found error for a lookup that no registry
// in the hierarchy could satisfy.
func ErrServiceNotFound(serviceType, registry string) *HiveError {
	return newError(CodeServiceNotFound,
		fmt.Sprintf("no service of type %s available in %s", serviceType, registry),
		nil,
		map[string]any{"service_type": serviceType, "registry": registry},
	)
}

// ErrAmbiguousService creates the error reported when more than one provider
// satisfies a lookup. Candidates are sorted so the message is stable.
func ErrAmbiguousService(serviceType, registry string, candidates []string) *HiveError {
	var b strings.Builder
	fmt.Fprintf(&b, "Multiple services of type %s available in %s:", serviceType, registry)
	for _, c := range candidates {
		b.WriteString("\n   - ")
		b.WriteString(c)
	}
	return newError(CodeAmbiguousService, b.String(), nil, map[string]any{
		"service_type": serviceType,
		"registry":     registry,
		"candidates":   candidates,
	})
}

// ErrCircularDependency creates a cycle error naming the provider that was
// revisited and the chain that led to it.
func ErrCircularDependency(service string, chain []string) *HiveError {
	msg := "dependency cycle detected, involving " + service
	if len(chain) > 0 {
		msg += " (" + strings.Join(chain, " -> ") + ")"
	}
	return newError(CodeCircularDependency, msg, nil, map[string]any{
		"service": service,
		"chain":   chain,
	})
}

// ErrInvalidRegistration creates a registration-time error.
func ErrInvalidRegistration(message string) *HiveError {
	return newError(CodeInvalidRegistration, message, nil, nil)
}

// ErrLifecycleViolation creates the error raised when a service's declared
// contract does not cover what its implementation does.
func ErrLifecycleViolation(service, message string) *HiveError {
	return newError(CodeLifecycleViolation, message, nil, map[string]any{"service": service})
}

// ErrConstructionFailed wraps a failing construction or bind hook.
func ErrConstructionFailed(service string, cause error) *HiveError {
	return newError(CodeConstructionFailed,
		"could not create service "+service,
		cause,
		map[string]any{"service": service},
	)
}

// ErrRegistryClosed creates the error returned by a registry after Close.
func ErrRegistryClosed(registry, operation string) *HiveError {
	return newError(CodeRegistryClosed,
		fmt.Sprintf("cannot %s, as %s has been closed", operation, registry),
		nil,
		map[string]any{"registry": registry, "operation": operation},
	)
}

// ErrInvalidType creates the error returned for type descriptors that have no
// usable erasure.
func ErrInvalidType(typ, reason string) *HiveError {
	return newError(CodeInvalidType,
		fmt.Sprintf("invalid service type %s: %s", typ, reason),
		nil,
		map[string]any{"type": typ},
	)
}

// ErrStopFailed wraps the aggregated failures of a shutdown sequence.
func ErrStopFailed(registry string, cause error) *HiveError {
	return newError(CodeStopFailed,
		"failed to stop services of "+registry,
		cause,
		map[string]any{"registry": registry},
	)
}

// ErrConfigError creates a config error
func ErrConfigError(message string, cause error) *HiveError {
	return newError(CodeConfigError, message, cause, nil)
}

// =============================================================================
// STANDARD ERRORS PACKAGE INTEGRATION
// =============================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// =============================================================================
// SENTINEL ERRORS (for use with Is)
// =============================================================================

var (
	ErrServiceNotFoundSentinel     = &HiveError{Code: CodeServiceNotFound}
	ErrAmbiguousServiceSentinel    = &HiveError{Code: CodeAmbiguousService}
	ErrCircularDependencySentinel  = &HiveError{Code: CodeCircularDependency}
	ErrInvalidRegistrationSentinel = &HiveError{Code: CodeInvalidRegistration}
	ErrLifecycleViolationSentinel  = &HiveError{Code: CodeLifecycleViolation}
	ErrConstructionFailedSentinel  = &HiveError{Code: CodeConstructionFailed}
	ErrRegistryClosedSentinel      = &HiveError{Code: CodeRegistryClosed}
	ErrInvalidTypeSentinel         = &HiveError{Code: CodeInvalidType}
	ErrStopFailedSentinel          = &HiveError{Code: CodeStopFailed}
	ErrConfigErrorSentinel         = &HiveError{Code: CodeConfigError}
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound checks if the error is a service not found error
func IsNotFound(err error) bool {
	return Is(err, ErrServiceNotFoundSentinel)
}

// IsAmbiguous checks if the error reports multiple candidate services
func IsAmbiguous(err error) bool {
	return Is(err, ErrAmbiguousServiceSentinel)
}

// IsCircularDependency checks if the error is a circular dependency error
func IsCircularDependency(err error) bool {
	return Is(err, ErrCircularDependencySentinel)
}

// IsInvalidRegistration checks if the error was raised while adding a service
func IsInvalidRegistration(err error) bool {
	return Is(err, ErrInvalidRegistrationSentinel)
}

// IsLifecycleViolation checks if the error is a lifecycle contract violation
func IsLifecycleViolation(err error) bool {
	return Is(err, ErrLifecycleViolationSentinel)
}

// IsConstructionFailed checks if the error came from a failing hook
func IsConstructionFailed(err error) bool {
	return Is(err, ErrConstructionFailedSentinel)
}

// IsRegistryClosed checks if the error was returned by a closed registry
func IsRegistryClosed(err error) bool {
	return Is(err, ErrRegistryClosedSentinel)
}

// IsInvalidType checks if the error is an invalid type descriptor error
func IsInvalidType(err error) bool {
	return Is(err, ErrInvalidTypeSentinel)
}
