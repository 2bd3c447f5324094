package remote

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// leveledLogger routes retryablehttp's key/value logging into logrus.
// Failed requests are reported by the engine, so retryablehttp's own error
// lines are demoted to debug.
type leveledLogger struct {
	l *logrus.Logger
}

func (l leveledLogger) entry(kv []interface{}) *logrus.Entry {
	fields := logrus.Fields{"component": "remote"}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return l.l.WithFields(fields)
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.entry(kv).Debug(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.entry(kv).Debug(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.entry(kv).Debug(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.entry(kv).Warn(msg) }
