package exitcode

const (
	Success         = 0
	UsageError      = 1
	ConfigError     = 2
	DBConnError     = 3
	IntrospectError = 4
	WriteError      = 5
	ServeError      = 6
)
