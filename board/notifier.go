package board

import (
	log "github.com/sirupsen/logrus"
)

// Notifier surfaces a failed mutation to the user. It is called after the
// local state has been rolled back.
type Notifier interface {
	Notify(op, taskID string, err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(op, taskID string, err error)

func (f NotifierFunc) Notify(op, taskID string, err error) { f(op, taskID, err) }

type logNotifier struct {
	log *log.Logger
}

func (n logNotifier) Notify(op, taskID string, err error) {
	n.log.WithFields(log.Fields{"op": op, "task": taskID}).WithError(err).Warn("board.mutation.failed")
}
