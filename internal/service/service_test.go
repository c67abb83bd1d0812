package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/AbdoViper23/halaqa-Save/internal/auth"
	"github.com/AbdoViper23/halaqa-Save/internal/middleware"
	"github.com/AbdoViper23/halaqa-Save/internal/storage/sqlite"
	"github.com/AbdoViper23/halaqa-Save/pkg/api"
	"github.com/AbdoViper23/halaqa-Save/pkg/api/apiconnect"
)

type testLedger struct {
	auth     apiconnect.AuthServiceClient
	groups   apiconnect.GroupServiceClient
	payments apiconnect.PaymentServiceClient
	store    *sqlite.SQLiteStore
}

// setupTestServer creates a ledger server over a temp database.
func setupTestServer(t *testing.T) (*testLedger, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
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

	interceptors := connect.WithInterceptors(
		middleware.LoggingInterceptor(),
		middleware.AuthInterceptor(jwtManager, apiconnect.PublicProcedures...),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, store, logger), interceptors))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(store), interceptors))
	mux.Handle(apiconnect.NewPaymentServiceHandler(NewPaymentService(store), interceptors))

	server := httptest.NewServer(mux)

	ledger := &testLedger{
		auth:     apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:   apiconnect.NewGroupServiceClient(http.DefaultClient, server.URL),
		payments: apiconnect.NewPaymentServiceClient(http.DefaultClient, server.URL),
		store:    store,
	}

	cleanup := func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	}

	return ledger, cleanup
}

func (l *testLedger) register(t *testing.T, email string) (*api.User, string) {
	t.Helper()
	resp, err := l.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       email,
		DisplayName: email,
		Password:    "password123",
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return resp.Msg.User, resp.Msg.Token
}

func authed[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func (l *testLedger) createGroup(t *testing.T, token string, members, cycles int, order string) *api.Group {
	t.Helper()
	resp, err := l.groups.CreateGroup(context.Background(), authed(&api.CreateGroupRequest{
		Name:           "Family Circle",
		Description:    "Monthly savings",
		MonthlyAmount:  100,
		DurationCycles: cycles,
		TotalMembers:   members,
		PayoutOrder:    order,
	}, token))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return resp.Msg.Group
}

func TestAuthFlow(t *testing.T) {
	l, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	user, token := l.register(t, "alice@example.com")
	if token == "" || user.ID == "" {
		t.Fatalf("Register returned user %+v token %q", user, token)
	}

	_, err := l.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "alice@example.com", DisplayName: "Alice", Password: "password123",
	}))
	if connect.CodeOf(err) != connect.CodeAlreadyExists {
		t.Errorf("duplicate Register code = %v, want AlreadyExists", connect.CodeOf(err))
	}

	_, err = l.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "bob@example.com", DisplayName: "Bob", Password: "short",
	}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("weak password code = %v, want InvalidArgument", connect.CodeOf(err))
	}

	login, err := l.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email: "alice@example.com", Password: "password123",
	}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	_, err = l.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email: "alice@example.com", Password: "wrong-password",
	}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("bad login code = %v, want Unauthenticated", connect.CodeOf(err))
	}

	me, err := l.auth.GetCurrentUser(ctx, authed(&api.GetCurrentUserRequest{}, login.Msg.Token))
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if me.Msg.User.ID != user.ID || me.Msg.User.DisplayName != "alice@example.com" {
		t.Errorf("GetCurrentUser = %+v, want %+v", me.Msg.User, user)
	}

	_, err = l.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("anonymous GetCurrentUser code = %v, want Unauthenticated", connect.CodeOf(err))
	}
}

func TestCreateGroup(t *testing.T) {
	l, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	user, token := l.register(t, "alice@example.com")
	group := l.createGroup(t, token, 4, 4, "")

	if group.Status != "Pending" || group.CurrentCycle != 0 || group.CurrentMembers != 0 {
		t.Errorf("new group state = %+v", group)
	}
	if group.PayoutOrder != "Auto" {
		t.Errorf("PayoutOrder = %q, want Auto", group.PayoutOrder)
	}
	if group.CreatedBy != user.ID {
		t.Errorf("CreatedBy = %q, want %q", group.CreatedBy, user.ID)
	}
	if len(group.AvailableSlots) != 4 || group.AvailableSlots[0] != 1 || group.AvailableSlots[3] != 4 {
		t.Errorf("AvailableSlots = %v, want [1 2 3 4]", group.AvailableSlots)
	}

	_, err := l.groups.CreateGroup(ctx, connect.NewRequest(&api.CreateGroupRequest{
		Name: "x", MonthlyAmount: 1, DurationCycles: 1, TotalMembers: 1,
	}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("anonymous CreateGroup code = %v, want Unauthenticated", connect.CodeOf(err))
	}

	_, err = l.groups.CreateGroup(ctx, authed(&api.CreateGroupRequest{
		Name: "x", MonthlyAmount: 0, DurationCycles: 1, TotalMembers: 1,
	}, token))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("zero amount CreateGroup code = %v, want InvalidArgument", connect.CodeOf(err))
	}

	got, err := l.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got.Msg.Group.Name != "Family Circle" {
		t.Errorf("GetGroup name = %q", got.Msg.Group.Name)
	}

	_, err = l.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: "missing"}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("missing GetGroup code = %v, want NotFound", connect.CodeOf(err))
	}
}

func TestJoinGroup(t *testing.T) {
	l, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	_, owner := l.register(t, "owner@example.com")
	bob, bobToken := l.register(t, "bob@example.com")
	_, carolToken := l.register(t, "carol@example.com")
	_, daveToken := l.register(t, "dave@example.com")

	group := l.createGroup(t, owner, 2, 2, "Manual")

	slot := 2
	joined, err := l.groups.JoinGroup(ctx, authed(&api.JoinGroupRequest{GroupID: group.ID, PreferredSlot: &slot}, bobToken))
	if err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	if joined.Msg.Membership.SlotNumber != 2 || joined.Msg.Membership.PayoutMonth != 2 {
		t.Errorf("membership = %+v, want slot 2 payout 2", joined.Msg.Membership)
	}

	_, err = l.groups.JoinGroup(ctx, authed(&api.JoinGroupRequest{GroupID: group.ID}, bobToken))
	if connect.CodeOf(err) != connect.CodeAlreadyExists {
		t.Errorf("repeat join code = %v, want AlreadyExists", connect.CodeOf(err))
	}

	_, err = l.groups.JoinGroup(ctx, authed(&api.JoinGroupRequest{GroupID: group.ID, PreferredSlot: &slot}, carolToken))
	if connect.CodeOf(err) != connect.CodeAborted {
		t.Errorf("taken slot code = %v, want Aborted", connect.CodeOf(err))
	}

	if _, err := l.groups.JoinGroup(ctx, authed(&api.JoinGroupRequest{GroupID: group.ID}, carolToken)); err != nil {
		t.Fatalf("auto JoinGroup failed: %v", err)
	}

	full, err := l.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if full.Msg.Group.Status != "Full" || len(full.Msg.Group.AvailableSlots) != 0 {
		t.Errorf("group after last join = %+v, want Full with no slots", full.Msg.Group)
	}

	_, err = l.groups.JoinGroup(ctx, authed(&api.JoinGroupRequest{GroupID: group.ID}, daveToken))
	if connect.CodeOf(err) != connect.CodeFailedPrecondition {
		t.Errorf("full group join code = %v, want FailedPrecondition", connect.CodeOf(err))
	}

	available, err := l.groups.ListAvailableGroups(ctx, connect.NewRequest(&api.ListAvailableGroupsRequest{}))
	if err != nil {
		t.Fatalf("ListAvailableGroups failed: %v", err)
	}
	if len(available.Msg.Groups) != 0 {
		t.Errorf("available groups = %d, want 0", len(available.Msg.Groups))
	}

	members, err := l.groups.GetGroupMemberships(ctx, connect.NewRequest(&api.GetGroupMembershipsRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("GetGroupMemberships failed: %v", err)
	}
	if len(members.Msg.Memberships) != 2 || members.Msg.Memberships[1].UserID != bob.ID {
		t.Errorf("memberships = %+v", members.Msg.Memberships)
	}

	mine, err := l.groups.GetUserGroups(ctx, authed(&api.GetUserGroupsRequest{}, bobToken))
	if err != nil {
		t.Fatalf("GetUserGroups failed: %v", err)
	}
	if len(mine.Msg.Groups) != 1 || mine.Msg.Groups[0].ID != group.ID {
		t.Errorf("user groups = %+v", mine.Msg.Groups)
	}

	me, err := l.auth.GetCurrentUser(ctx, authed(&api.GetCurrentUserRequest{}, bobToken))
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if len(me.Msg.User.JoinedGroups) != 1 {
		t.Errorf("JoinedGroups = %v, want one group", me.Msg.User.JoinedGroups)
	}
}

func TestConcurrentJoinsSameSlot(t *testing.T) {
	l, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	_, owner := l.register(t, "owner@example.com")
	group := l.createGroup(t, owner, 5, 5, "Manual")

	const joiners = 5
	tokens := make([]string, joiners)
	for i := range tokens {
		_, tokens[i] = l.register(t, string(rune('a'+i))+"@example.com")
	}

	var wg sync.WaitGroup
	codes := make([]connect.Code, joiners)
	errs := make([]error, joiners)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			slot := 3
			_, errs[i] = l.groups.JoinGroup(ctx, authed(&api.JoinGroupRequest{GroupID: group.ID, PreferredSlot: &slot}, tokens[i]))
			codes[i] = connect.CodeOf(errs[i])
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range errs {
		if err == nil {
			winners++
			continue
		}
		if codes[i] != connect.CodeAborted {
			t.Errorf("loser %d code = %v, want Aborted", i, codes[i])
		}
	}
	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
}

func TestPaymentsAndStanding(t *testing.T) {
	l, cleanup := setupTestServer(t)
	defer cleanup()
	ctx := context.Background()

	_, owner := l.register(t, "owner@example.com")
	alice, aliceToken := l.register(t, "alice@example.com")
	bob, bobToken := l.register(t, "bob@example.com")
	_, outsiderToken := l.register(t, "eve@example.com")

	group := l.createGroup(t, owner, 2, 2, "Auto")
	for _, token := range []string{aliceToken, bobToken} {
		if _, err := l.groups.JoinGroup(ctx, authed(&api.JoinGroupRequest{GroupID: group.ID}, token)); err != nil {
			t.Fatalf("JoinGroup failed: %v", err)
		}
	}
	if _, err := l.store.AdvanceCycle(ctx, group.ID); err != nil {
		t.Fatalf("AdvanceCycle failed: %v", err)
	}

	paid, err := l.payments.MakePayment(ctx, authed(&api.MakePaymentRequest{GroupID: group.ID, CycleNumber: 1}, aliceToken))
	if err != nil {
		t.Fatalf("MakePayment failed: %v", err)
	}
	if paid.Msg.Payment.Amount != 100 || paid.Msg.Payment.Status != "Paid" {
		t.Errorf("payment = %+v, want 100 Paid", paid.Msg.Payment)
	}

	_, err = l.payments.MakePayment(ctx, authed(&api.MakePaymentRequest{GroupID: group.ID, CycleNumber: 1}, aliceToken))
	if connect.CodeOf(err) != connect.CodeAlreadyExists {
		t.Errorf("duplicate payment code = %v, want AlreadyExists", connect.CodeOf(err))
	}

	_, err = l.payments.MakePayment(ctx, authed(&api.MakePaymentRequest{GroupID: group.ID, CycleNumber: 3}, aliceToken))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("out of range cycle code = %v, want InvalidArgument", connect.CodeOf(err))
	}

	_, err = l.payments.MakePayment(ctx, authed(&api.MakePaymentRequest{GroupID: group.ID, CycleNumber: 1}, outsiderToken))
	if connect.CodeOf(err) != connect.CodePermissionDenied {
		t.Errorf("outsider payment code = %v, want PermissionDenied", connect.CodeOf(err))
	}

	list, err := l.payments.GetUserPayments(ctx, authed(&api.GetUserPaymentsRequest{GroupID: group.ID}, aliceToken))
	if err != nil {
		t.Fatalf("GetUserPayments failed: %v", err)
	}
	if len(list.Msg.Payments) != 1 {
		t.Errorf("payments = %d, want 1", len(list.Msg.Payments))
	}

	mine, err := l.payments.GetMemberStanding(ctx, authed(&api.GetMemberStandingRequest{GroupID: group.ID}, aliceToken))
	if err != nil {
		t.Fatalf("GetMemberStanding failed: %v", err)
	}
	st := mine.Msg.Standing
	if st.UserID != alice.ID || st.Contributed != 100 || st.Outstanding != 0 || st.PayoutAmount != 200 {
		t.Errorf("alice standing = %+v", st)
	}

	theirs, err := l.payments.GetMemberStanding(ctx, authed(&api.GetMemberStandingRequest{GroupID: group.ID, UserID: bob.ID}, aliceToken))
	if err != nil {
		t.Fatalf("GetMemberStanding(bob) failed: %v", err)
	}
	if theirs.Msg.Standing.Outstanding != 100 || len(theirs.Msg.Standing.OverdueCycles) != 1 {
		t.Errorf("bob standing = %+v, want one overdue cycle", theirs.Msg.Standing)
	}

	_, err = l.payments.GetMemberStanding(ctx, authed(&api.GetMemberStandingRequest{GroupID: group.ID}, outsiderToken))
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) || connectErr.Code() != connect.CodePermissionDenied {
		t.Errorf("outsider standing error = %v, want PermissionDenied", err)
	}
}
