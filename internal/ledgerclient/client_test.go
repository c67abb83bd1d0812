package ledgerclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/AbdoViper23/halaqa-Save/internal/allocation"
	"github.com/AbdoViper23/halaqa-Save/internal/auth"
	"github.com/AbdoViper23/halaqa-Save/internal/groups"
	"github.com/AbdoViper23/halaqa-Save/internal/middleware"
	"github.com/AbdoViper23/halaqa-Save/internal/models"
	"github.com/AbdoViper23/halaqa-Save/internal/service"
	"github.com/AbdoViper23/halaqa-Save/internal/storage/sqlite"
	"github.com/AbdoViper23/halaqa-Save/pkg/api/apiconnect"
)

// setupLedger starts a ledger server over a temp database.
func setupLedger(t *testing.T) (*httptest.Server, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "ledger-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	interceptors := connect.WithInterceptors(middleware.AuthInterceptor(jwtManager, apiconnect.PublicProcedures...))

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(service.NewAuthService(authenticator, jwtManager, store, logger), interceptors))
	mux.Handle(apiconnect.NewGroupServiceHandler(service.NewGroupService(store), interceptors))
	mux.Handle(apiconnect.NewPaymentServiceHandler(service.NewPaymentService(store), interceptors))
	server := httptest.NewServer(mux)

	return server, func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	}
}

func signedIn(t *testing.T, baseURL, email string) (*Client, *models.User) {
	t.Helper()
	c := New(http.DefaultClient, baseURL, "")
	user, err := c.Register(context.Background(), email, email, "password123")
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return c, user
}

func TestClientSession(t *testing.T) {
	server, cleanup := setupLedger(t)
	defer cleanup()
	ctx := context.Background()

	anon := New(http.DefaultClient, server.URL, "")
	if u, err := anon.CurrentUser(ctx); err != nil || u != nil {
		t.Errorf("anonymous CurrentUser = %v, %v; want nil, nil", u, err)
	}

	c, user := signedIn(t, server.URL, "alice@example.com")
	if c.Token() == "" {
		t.Fatal("Register did not store a token")
	}

	me, err := c.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if me.ID != user.ID {
		t.Errorf("CurrentUser ID = %q, want %q", me.ID, user.ID)
	}

	again := New(http.DefaultClient, server.URL, "")
	if _, err := again.Login(ctx, "alice@example.com", "password123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if again.Token() == "" {
		t.Error("Login did not store a token")
	}

	_, err = anon.CreateGroup(ctx, models.GroupSpec{Name: "x", MonthlyAmount: 1, DurationCycles: 1, TotalMembers: 1})
	var ce *groups.CreationError
	if !errors.As(err, &ce) {
		t.Errorf("anonymous CreateGroup error = %v, want CreationError", err)
	}
}

func TestStoreOverLedger(t *testing.T) {
	server, cleanup := setupLedger(t)
	defer cleanup()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	aliceClient, alice := signedIn(t, server.URL, "alice@example.com")
	bobClient, bob := signedIn(t, server.URL, "bob@example.com")

	aliceStore := groups.NewStore(aliceClient, nil, logger)
	bobStore := groups.NewStore(bobClient, nil, logger)

	created, err := aliceStore.Create(ctx, models.GroupSpec{
		Name: "Family Circle", MonthlyAmount: 100, DurationCycles: 2, TotalMembers: 2, PayoutOrder: models.PayoutManual,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	slot := 2
	g, err := aliceStore.Join(ctx, created.ID, alice.ID, &slot)
	if err != nil {
		t.Fatalf("alice Join failed: %v", err)
	}
	if g.Slots[1].OccupantID != alice.ID {
		t.Errorf("slot 2 occupant = %q, want alice", g.Slots[1].OccupantID)
	}

	_, err = aliceStore.Join(ctx, created.ID, alice.ID, nil)
	if !errors.Is(err, allocation.ErrAlreadyMember) {
		t.Errorf("repeat Join error = %v, want ErrAlreadyMember", err)
	}

	_, err = bobStore.Join(ctx, created.ID, bob.ID, &slot)
	if !errors.Is(err, allocation.ErrSlotUnavailable) {
		t.Errorf("taken slot Join error = %v, want ErrSlotUnavailable", err)
	}

	g, err = bobStore.Join(ctx, created.ID, bob.ID, nil)
	if err != nil {
		t.Fatalf("bob Join failed: %v", err)
	}
	if g.Status != models.GroupFull {
		t.Errorf("status after last join = %s, want Full", g.Status)
	}

	available, err := bobStore.GetAvailableGroups(ctx)
	if err != nil {
		t.Fatalf("GetAvailableGroups failed: %v", err)
	}
	if len(available) != 0 {
		t.Errorf("available groups = %d, want 0", len(available))
	}

	me, err := bobClient.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	mine, err := bobStore.UserGroups(ctx, me.JoinedGroups)
	if err != nil || len(mine) != 1 {
		t.Errorf("UserGroups = %v, %v; want the joined group", mine, err)
	}
}

func TestJoinRejectionsFromLedger(t *testing.T) {
	server, cleanup := setupLedger(t)
	defer cleanup()
	ctx := context.Background()

	owner, _ := signedIn(t, server.URL, "owner@example.com")
	created, err := owner.CreateGroup(ctx, models.GroupSpec{Name: "Solo", MonthlyAmount: 10, DurationCycles: 1, TotalMembers: 1})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	if _, err := owner.JoinGroup(ctx, created.ID, nil); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}

	tests := []struct {
		name    string
		groupID string
		want    error
	}{
		{"repeat", created.ID, allocation.ErrAlreadyMember},
		{"missing group", "missing", allocation.ErrGroupNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := owner.JoinGroup(ctx, tt.groupID, nil)
			var je *allocation.JoinError
			if !errors.As(err, &je) || !errors.Is(err, tt.want) {
				t.Errorf("JoinGroup error = %v, want JoinError(%v)", err, tt.want)
			}
		})
	}

	late, _ := signedIn(t, server.URL, "late@example.com")
	_, err = late.JoinGroup(ctx, created.ID, nil)
	if !errors.Is(err, allocation.ErrGroupNotJoinable) {
		t.Errorf("full group JoinGroup error = %v, want ErrGroupNotJoinable", err)
	}
}

func TestLedgerUnreachable(t *testing.T) {
	server, cleanup := setupLedger(t)
	c, _ := signedIn(t, server.URL, "alice@example.com")
	cleanup()

	ctx := context.Background()
	if _, err := c.ListAvailableGroups(ctx); !errors.Is(err, allocation.ErrRepositoryUnavailable) {
		t.Errorf("ListAvailableGroups error = %v, want ErrRepositoryUnavailable", err)
	}
	if _, err := c.JoinGroup(ctx, "g", nil); !errors.Is(err, allocation.ErrRepositoryUnavailable) {
		t.Errorf("JoinGroup error = %v, want ErrRepositoryUnavailable", err)
	}
}

func TestPaymentsOverLedger(t *testing.T) {
	server, cleanup := setupLedger(t)
	defer cleanup()
	ctx := context.Background()

	c, _ := signedIn(t, server.URL, "alice@example.com")
	created, err := c.CreateGroup(ctx, models.GroupSpec{Name: "Pair", MonthlyAmount: 25, DurationCycles: 2, TotalMembers: 2})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := c.JoinGroup(ctx, created.ID, nil); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}

	payment, err := c.MakePayment(ctx, created.ID, 1)
	if err != nil {
		t.Fatalf("MakePayment failed: %v", err)
	}
	if payment.Amount != 25 || payment.Status != models.PaymentPaid {
		t.Errorf("payment = %+v", payment)
	}

	payments, err := c.Payments(ctx, created.ID)
	if err != nil || len(payments) != 1 {
		t.Errorf("Payments = %v, %v; want one payment", payments, err)
	}

	standing, err := c.Standing(ctx, created.ID, "")
	if err != nil {
		t.Fatalf("Standing failed: %v", err)
	}
	if standing.Contributed != 25 || standing.PayoutAmount != 50 {
		t.Errorf("standing = %+v", standing)
	}
}
