// Package cli implements the leadboard command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"leadboard/board"
	"leadboard/client"
	"leadboard/internal/config"
	"leadboard/kanban"
	"leadboard/session"
)

// Options lets callers and tests replace the process defaults.
type Options struct {
	ConfigPaths []string
	Out         io.Writer
	Err         io.Writer
	Store       session.Store
	HTTPClient  *http.Client
}

// app is built once per invocation in the root pre-run and shared by every
// subcommand.
type app struct {
	opts Options
	cfg  *config.Config
	log  *log.Logger
	sess *session.Session
	api  *client.Client
}

func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.ConfigPaths == nil {
		opts.ConfigPaths = config.DefaultPaths()
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:           "leadboard",
		Short:         "Work the CRM task board and contacts from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd.Context()); err != nil {
				return err
			}
			return a.authorize(cmd)
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.configCmd(),
		a.tasksCmd(),
		a.contactsCmd(),
		a.leadsCmd(),
		a.smsCmd(),
	)
	return root
}

// Execute runs the CLI with process defaults.
func Execute() error {
	root := NewRootCommand(Options{})
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.opts.ConfigPaths...)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.NewLogger(a.opts.Err)

	store := a.opts.Store
	if store == nil {
		if store, err = a.sessionStore(); err != nil {
			return err
		}
	}
	a.sess, err = session.Open(ctx, store)
	if err != nil {
		return err
	}
	a.api = a.newClient(a.sess)
	return nil
}

func (a *app) sessionStore() (session.Store, error) {
	sc := a.cfg.Session
	if sc.Backend == "redis" {
		opts, err := redis.ParseURL(sc.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("session.redis_url: %w", err)
		}
		return session.NewRedisStore(redis.NewClient(opts), sc.Profile, sc.TTL), nil
	}
	path := sc.Path
	if path == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return session.NewFileStore(path), nil
}

func (a *app) newClient(ts client.TokenSource) *client.Client {
	opts := []client.Option{client.WithTokenSource(ts), client.WithLogger(a.log)}
	if a.opts.HTTPClient != nil {
		opts = append(opts, client.WithHTTPClient(a.opts.HTTPClient))
	}
	return client.New(a.cfg.APIURL, opts...)
}

// loadBoard fetches the task collection into a board configured from the
// board.* settings.
func (a *app) loadBoard(ctx context.Context) (*board.Board, error) {
	opts := []board.Option{board.WithLogger(a.log)}
	if a.cfg.Board.PositionOrder {
		opts = append(opts, board.WithPositionOrder())
	}
	if a.cfg.Board.SerializeWrites {
		opts = append(opts, board.WithSerializedWrites())
	}
	b := board.New(a.api, opts...)
	if err := b.Load(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (a *app) loadKanban(ctx context.Context) (*kanban.Board, error) {
	cols, err := a.cfg.BoardColumns()
	if err != nil {
		return nil, err
	}
	b, err := a.loadBoard(ctx)
	if err != nil {
		return nil, err
	}
	return kanban.New(b, cols), nil
}

func commandKey(cmd *cobra.Command) string {
	return strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()+" ")
}
