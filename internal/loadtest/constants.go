package loadtest

import "time"

// Defaults applied by Run for zero config values.
const (
	DefaultBaseURL       = "http://localhost:9080"
	DefaultVotes         = 10000
	DefaultProjects      = 20
	DefaultTimeout       = 30 * time.Second
	DefaultSettleTimeout = 2 * time.Minute
	DefaultPollInterval  = 250 * time.Millisecond
	WorkersPerCPU        = 2
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	progressInterval        = time.Second
	userPool                = 1000
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	directoryPermission  = 0o750
	filePermission       = 0o600
)
