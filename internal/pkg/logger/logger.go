// Package logger emits structured JSON log lines to stderr. Field values
// that look like prescriber identifiers or contact details are masked
// before they reach the log stream.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger provides leveled JSON logging with PII masking.
type Logger struct {
	level     Level
	mu        sync.Mutex
	redactPII bool
}

var defaultLogger = newDefault()

func newDefault() *Logger {
	l := &Logger{level: INFO, redactPII: true}
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		l.level = DEBUG
	case "WARN":
		l.level = WARN
	case "ERROR":
		l.level = ERROR
	}
	return l
}

// SetLevel sets the minimum log level for the default logger.
func SetLevel(l Level) { defaultLogger.level = l }

// SetRedactPII enables or disables PII masking for the default logger.
// Masking is on by default.
func SetRedactPII(r bool) { defaultLogger.redactPII = r }

// Debug logs at DEBUG level. Fields are alternating key-value pairs.
func Debug(msg string, fields ...interface{}) { defaultLogger.log(DEBUG, msg, fields...) }

// Info logs at INFO level.
func Info(msg string, fields ...interface{}) { defaultLogger.log(INFO, msg, fields...) }

// Warn logs at WARN level.
func Warn(msg string, fields ...interface{}) { defaultLogger.log(WARN, msg, fields...) }

// Error logs at ERROR level.
func Error(msg string, fields ...interface{}) { defaultLogger.log(ERROR, msg, fields...) }

func (l *Logger) log(level Level, msg string, fields ...interface{}) {
	if level < l.level {
		return
	}

	entry := map[string]interface{}{
		"time":  time.Now().UTC().Format(time.RFC3339),
		"level": level.String(),
		"msg":   msg,
	}

	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		entry[key] = l.fieldValue(key, fields[i+1])
	}
	if len(fields)%2 != 0 {
		entry["extra"] = fmt.Sprintf("%v", fields[len(fields)-1])
	}

	data, err := json.Marshal(entry)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"level":%q,"msg":%q}`, level.String(), msg))
	}
	l.mu.Lock()
	fmt.Fprintln(os.Stderr, string(data))
	l.mu.Unlock()
}

// fieldValue keeps numeric and boolean fields typed in the JSON output;
// everything else is stringified and run through the masker.
func (l *Logger) fieldValue(key string, v interface{}) interface{} {
	switch v.(type) {
	case int, int32, int64, uint, uint32, uint64, float32, float64, bool:
		return v
	}
	s := fmt.Sprintf("%v", v)
	if l.redactPII {
		s = redactPIIValue(key, s)
	}
	return s
}

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	if strings.Contains(key, "email") {
		return RedactEmail(val)
	}
	if strings.Contains(key, "npi") {
		return RedactNPI(val)
	}
	if strings.Contains(key, "phone") {
		return RedactPhone(val)
	}
	// Catch emails embedded in free-form fields.
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}
