package constants

const (
	// DefaultTimezone resolves "today" with the system local timezone
	DefaultTimezone = "Local"

	// DefaultLogDays is how many days `habit log` shows
	DefaultLogDays = 14
)
