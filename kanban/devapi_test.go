package kanban_test

import (
	"context"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"leadboard/board"
	"leadboard/client"
	"leadboard/devapi"
	"leadboard/domain"
	"leadboard/internal/testutil"
	"leadboard/kanban"
)

func TestDragThroughDevAPI(t *testing.T) {
	t.Run("array order", func(t *testing.T) { dragThroughDevAPI(t) })
	t.Run("position order", func(t *testing.T) { dragThroughDevAPI(t, board.WithPositionOrder()) })
}

func dragThroughDevAPI(t *testing.T, opts ...board.Option) {
	srv := testutil.StartDevServer(t)
	c := client.New(srv.BaseURL(), client.WithTokenSource(client.StaticToken(testutil.MustToken(devapi.AgentUserID))))
	ctx := context.Background()

	for _, title := range []string{"Call Ada", "Email Bo", "Visit Cy"} {
		if _, err := c.CreateTask(ctx, client.TaskInput{Title: title}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	logger, _ := logtest.NewNullLogger()
	b := board.New(c, append([]board.Option{board.WithLogger(logger)}, opts...)...)
	if err := b.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	k := kanban.New(b, domain.DefaultColumns())

	first := k.View(board.Filter{})[0].Tasks[0]
	err := k.Drop(ctx, kanban.DropEvent{TaskID: first.ID, FromColumn: "todo", ToColumn: "review"})
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	stored, err := c.GetTask(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if stored.Status != domain.StatusReview {
		t.Fatalf("server status: %s", stored.Status)
	}

	todo := k.View(board.Filter{})[0].Tasks
	if len(todo) != 2 {
		t.Fatalf("expected 2 todo tasks, got %d", len(todo))
	}
	last := todo[1]
	if err := k.Drop(ctx, kanban.DropEvent{TaskID: last.ID, FromColumn: "todo", ToColumn: "todo", Index: 0}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if got := k.View(board.Filter{})[0].Tasks[0].ID; got != last.ID {
		t.Fatalf("expected %s on top, got %s", last.ID, got)
	}
	if b.Pending(last.ID) != 0 {
		t.Fatalf("mutation still pending")
	}
}
