package loadtest

// HTTP status code constants.
const (
	StatusOK         = 200
	StatusBadRequest = 400
	StatusServerErr  = 500
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	malformedPercent     = 5
	historyPercent       = 20
	healthPercent        = 15
)
