package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AbdoViper23/halaqa-Save/internal/models"
	"github.com/AbdoViper23/halaqa-Save/internal/storage/sqlite"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnceLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "cycles.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	alice := models.NewUser("alice@example.com", "Alice", "hash")
	bob := models.NewUser("bob@example.com", "Bob", "hash")
	for _, u := range []*models.User{alice, bob} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	running := &models.RemoteGroup{Name: "Pair", MonthlyAmount: 50, DurationCycles: 2, TotalMembers: 2, CreatedBy: alice.ID, PayoutOrder: models.PayoutAuto}
	waiting := &models.RemoteGroup{Name: "Open", MonthlyAmount: 50, DurationCycles: 3, TotalMembers: 3, CreatedBy: alice.ID, PayoutOrder: models.PayoutAuto}
	for _, g := range []*models.RemoteGroup{running, waiting} {
		if err := store.CreateGroup(ctx, g); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
	}
	for _, u := range []*models.User{alice, bob} {
		if _, err := store.JoinGroup(ctx, running.ID, u.ID, nil); err != nil {
			t.Fatalf("JoinGroup failed: %v", err)
		}
	}

	s, err := New(store, "", quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	steps := []struct {
		want   Result
		status models.GroupStatus
		cycle  int
	}{
		{want: Result{Started: 1}, status: models.GroupActive, cycle: 1},
		{want: Result{Advanced: 1}, status: models.GroupActive, cycle: 2},
		{want: Result{Completed: 1}, status: models.GroupCompleted, cycle: 2},
		{want: Result{}, status: models.GroupCompleted, cycle: 2},
	}
	for i, step := range steps {
		got := s.RunOnce(ctx)
		if diff := cmp.Diff(step.want, got); diff != "" {
			t.Errorf("run %d: result mismatch (-want +got):\n%s", i+1, diff)
		}
		g, err := store.GetGroup(ctx, running.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if models.GroupStatus(g.Status) != step.status || g.CurrentCycle != step.cycle {
			t.Errorf("run %d: group = %s cycle %d, want %s cycle %d", i+1, g.Status, g.CurrentCycle, step.status, step.cycle)
		}
	}

	g, err := store.GetGroup(ctx, waiting.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if models.GroupStatus(g.Status) != models.GroupPending || g.CurrentCycle != 0 {
		t.Errorf("pending group was touched: %s cycle %d", g.Status, g.CurrentCycle)
	}
}

type brokenStore struct {
	groups []*models.RemoteGroup
}

func (b *brokenStore) ListGroupsByStatus(_ context.Context, status models.GroupStatus) ([]*models.RemoteGroup, error) {
	if status == models.GroupFull {
		return nil, errors.New("disk gone")
	}
	return b.groups, nil
}

func (b *brokenStore) AdvanceCycle(_ context.Context, groupID string) (*models.RemoteGroup, error) {
	if groupID == "bad" {
		return nil, errors.New("locked")
	}
	return &models.RemoteGroup{ID: groupID, Status: string(models.GroupActive), CurrentCycle: 2}, nil
}

func TestRunOnceContinuesAfterFailures(t *testing.T) {
	store := &brokenStore{groups: []*models.RemoteGroup{
		{ID: "bad", Status: string(models.GroupActive)},
		{ID: "good", Status: string(models.GroupActive)},
	}}
	s, err := New(store, "@daily", quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := s.RunOnce(context.Background())
	if diff := cmp.Diff(Result{Advanced: 1, Failed: 1}, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRejectsBadSpec(t *testing.T) {
	if _, err := New(&brokenStore{}, "every tuesday", quietLogger()); err == nil {
		t.Error("New() with an invalid cron spec should fail")
	}
}

func TestStartStop(t *testing.T) {
	s, err := New(&brokenStore{}, "@hourly", quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.Start()
	s.Stop()
}
