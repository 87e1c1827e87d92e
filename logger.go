package hive

import "github.com/xraph/hive/internal/logger"

// Re-export logger interfaces
type (
	Logger        = logger.Logger
	Field         = logger.Field
	LoggingConfig = logger.LoggingConfig
)

// Re-export logger constructors
var (
	NewLogger            = logger.NewLogger
	NewDevelopmentLogger = logger.NewDevelopmentLogger
	NewProductionLogger  = logger.NewProductionLogger
	NewNoopLogger        = logger.NewNoopLogger
	NewTestLogger        = logger.NewTestLogger
)

// Re-export field constructors
var (
	String   = logger.String
	Strings  = logger.Strings
	Int      = logger.Int
	Bool     = logger.Bool
	Duration = logger.Duration
	Error    = logger.Error
	Any      = logger.Any
)
