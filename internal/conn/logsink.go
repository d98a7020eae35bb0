package conn

import (
	"github.com/hashicorp/go-hclog"

	"github.com/ppiankov/mongoscope/internal/redact"
)

// HCLogSink forwards driver log messages to an hclog logger, scrubbing
// connection strings out of every value and dropping command and reply bodies.
type HCLogSink struct {
	logger hclog.Logger
}

// NewHCLogSink wraps logger as a driver log sink.
func NewHCLogSink(logger hclog.Logger) *HCLogSink {
	return &HCLogSink{logger: logger}
}

// Info implements options.LogSink. The driver passes 0 for info and 1 for
// debug messages.
func (s *HCLogSink) Info(level int, message string, keysAndValues ...interface{}) {
	args := scrub(keysAndValues)
	if level >= 1 {
		s.logger.Debug(redact.Text(message), args...)
		return
	}
	s.logger.Info(redact.Text(message), args...)
}

// Error implements options.LogSink.
func (s *HCLogSink) Error(err error, message string, keysAndValues ...interface{}) {
	args := scrub(keysAndValues)
	if err != nil {
		args = append(args, "error", redact.Text(err.Error()))
	}
	s.logger.Error(redact.Text(message), args...)
}

// documentKeys carry raw command and reply bodies, which may hold any field of
// a sampled document.
var documentKeys = map[string]bool{
	"command": true,
	"reply":   true,
}

func scrub(keysAndValues []interface{}) []interface{} {
	out := make([]interface{}, 0, len(keysAndValues))
	for i := 0; i < len(keysAndValues); i += 2 {
		key := keysAndValues[i]
		if name, ok := key.(string); ok && documentKeys[name] {
			continue
		}
		out = append(out, scrubValue(key))
		if i+1 < len(keysAndValues) {
			out = append(out, scrubValue(keysAndValues[i+1]))
		}
	}
	return out
}

func scrubValue(v interface{}) interface{} {
	if str, ok := v.(string); ok {
		return redact.Text(str)
	}
	return v
}
