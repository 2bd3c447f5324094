package engine

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sw33tLie/phishguard/pkg/scoring"
)

// Notifier is the browser side of the engine: it raises block actions and
// shows assessments. Implementations must be safe for concurrent use.
type Notifier interface {
	Block(url, reason string)
	Display(url string, a scoring.Assessment)
}

// LogNotifier reports through a logger. Blocks are warnings, displays are
// debug messages.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n LogNotifier) Block(url, reason string) {
	n.Log.WithField("url", url).Warnf("Blocked: %s", reason)
}

func (n LogNotifier) Display(url string, a scoring.Assessment) {
	n.Log.WithFields(logrus.Fields{
		"url":    url,
		"score":  a.Score,
		"source": a.Source,
	}).Debugf("Assessment: %s", strings.Join(a.Reasons, "; "))
}
