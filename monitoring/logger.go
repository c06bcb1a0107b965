package monitoring

import "log"

// thin wrapper over the standard logger so engine components share one
// consistent prefix style
type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) Info(message string) {
	log.Printf("INFO: %s", message)
}

func (l *Logger) Error(message, details string) {
	log.Printf("ERROR: %s - %s", message, details)
}
