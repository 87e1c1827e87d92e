package hive

import "github.com/xraph/hive/internal/config"

// Configuration types.
type (
	Config        = config.Config
	MetricsConfig = config.MetricsConfig
	TracingConfig = config.TracingConfig
)

// Configuration loading.
var (
	DefaultConfig = config.Default
	LoadConfig    = config.Load
	ParseConfig   = config.Parse
	SaveConfig    = config.Save
)
