package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ErrNotSignedIn = errors.New("not signed in: run `leadboard login --token TOKEN`")

type guard struct {
	resource string
	action   string
}

// guards lists the capability each command needs. Commands without an entry
// run without a session.
var guards = map[string]guard{
	"tasks list":      {"tasks", "read"},
	"tasks board":     {"tasks", "read"},
	"tasks stats":     {"tasks", "read"},
	"tasks create":    {"tasks", "create"},
	"tasks status":    {"tasks", "update"},
	"tasks move":      {"tasks", "update"},
	"tasks comment":   {"tasks", "update"},
	"tasks check":     {"tasks", "update"},
	"tasks done-item": {"tasks", "update"},
	"tasks delete":    {"tasks", "delete"},
	"contacts list":   {"contacts", "read"},
	"contacts import": {"contacts", "import"},
	"contacts export": {"contacts", "export"},
	"leads add":       {"leads", "create"},
	"sms send":        {"sms", "send"},
}

func (a *app) authorize(cmd *cobra.Command) error {
	g, ok := guards[commandKey(cmd)]
	if !ok {
		return nil
	}
	if !a.sess.SignedIn() {
		return ErrNotSignedIn
	}
	if err := a.sess.Policy().Require(g.resource, g.action); err != nil {
		return fmt.Errorf("%s: %w", commandKey(cmd), err)
	}
	return nil
}
