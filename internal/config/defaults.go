package config

// Filter defaults. Empty extensions fall back to the analyzer's
// built-in set.
const (
	DefaultFilterSkipVendored = false
	DefaultFilterMaxFileSize  = ""
)

// History walk defaults. Zero workers means one per CPU.
const (
	DefaultHistoryWorkers    = 0
	DefaultHistoryLineStats  = false
	DefaultHistoryGitTimeout = ""
)

// Retry defaults mirror the backoff package defaults.
const (
	DefaultRetryMaxAttempts = 3
	DefaultRetryBaseDelay   = "500ms"
	DefaultRetryMaxDelay    = "10s"
	DefaultRetryMultiplier  = 2.0
	DefaultRetryJitter      = true
)

// Output defaults.
const (
	DefaultOutputFormat = FormatSummary
)

// Observability defaults.
const (
	DefaultLogLevel    = "info"
	DefaultLogJSON     = false
	DefaultSampleRatio = 0.0
)
