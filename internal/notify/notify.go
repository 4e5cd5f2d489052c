// Package notify carries the messages the reviewer sees: queued info and
// warning notices, and a transient status line that clears itself.
package notify

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Level classifies a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelSuccess Level = "success"
)

// Notice is one message for the reviewer.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Notifier queues info and warning notices until a front-end drains them and
// routes success messages to the status line.
type Notifier struct {
	mu      sync.Mutex
	pending []Notice
	status  *StatusLine
}

// New returns a notifier writing success messages to status.
func New(status *StatusLine) *Notifier {
	return &Notifier{status: status}
}

// Info queues an informational notice.
func (n *Notifier) Info(msg string) {
	log.WithField("notice", "info").Info(msg)
	n.push(LevelInfo, msg)
}

// Warning queues a warning notice.
func (n *Notifier) Warning(msg string) {
	log.WithField("notice", "warning").Warn(msg)
	n.push(LevelWarning, msg)
}

// Success shows msg on the transient status line.
func (n *Notifier) Success(msg string) {
	log.WithField("notice", "success").Info(msg)
	n.status.Show(msg)
}

func (n *Notifier) push(level Level, msg string) {
	n.mu.Lock()
	n.pending = append(n.pending, Notice{Level: level, Message: msg, Time: time.Now()})
	n.mu.Unlock()
}

// Drain returns the queued notices, oldest first, and empties the queue.
func (n *Notifier) Drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending
	n.pending = nil
	return out
}

// Status returns the current status line text.
func (n *Notifier) Status() string {
	return n.status.Text()
}
