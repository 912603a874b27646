package constants

import "time"

const (
	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DateTimeFormat combines DateFormat and TimeFormat for visit input
	DateTimeFormat = "2006-01-02 15:04"

	// MonthFormat is used for agenda headers
	MonthFormat = "January 2006"

	DefaultTimezone = "Local"
)

const (
	// MaxRetries is the number of automatic retries after the first failed attempt.
	MaxRetries = 3

	// DefaultRetryBaseDelay is multiplied by 2^retryCount between attempts.
	DefaultRetryBaseDelay = time.Second

	// LoadWindowYears bounds the initial agenda load on either side of now.
	LoadWindowYears = 1
)
