package i

// Logger is the leveled logger shared by services and infrastructure.
type Logger interface {
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}
