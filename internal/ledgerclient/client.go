// Package ledgerclient talks to the ledger server over Connect and implements
// groups.Repository on top of it.
package ledgerclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"connectrpc.com/connect"

	"github.com/AbdoViper23/halaqa-Save/internal/allocation"
	"github.com/AbdoViper23/halaqa-Save/internal/groups"
	"github.com/AbdoViper23/halaqa-Save/internal/models"
	"github.com/AbdoViper23/halaqa-Save/pkg/api"
	"github.com/AbdoViper23/halaqa-Save/pkg/api/apiconnect"
)

var _ groups.Repository = (*Client)(nil)

// Client is a signed-in (or anonymous) session with the ledger.
type Client struct {
	auth     apiconnect.AuthServiceClient
	groups   apiconnect.GroupServiceClient
	payments apiconnect.PaymentServiceClient

	mu    sync.RWMutex
	token string
}

// New creates a client for the ledger at baseURL. An empty token starts an
// anonymous session; Register and Login replace it.
func New(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	c := &Client{token: token}
	opts = append(opts, connect.WithInterceptors(c.bearer()))
	c.auth = apiconnect.NewAuthServiceClient(httpClient, baseURL, opts...)
	c.groups = apiconnect.NewGroupServiceClient(httpClient, baseURL, opts...)
	c.payments = apiconnect.NewPaymentServiceClient(httpClient, baseURL, opts...)
	return c
}

// Token returns the session token, empty when anonymous.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// bearer attaches the session token to every outgoing call.
func (c *Client) bearer() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token := c.Token(); token != "" && req.Spec().IsClient {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}

// Register creates an account and signs the session in as it.
func (c *Client) Register(ctx context.Context, email, displayName, password string) (*models.User, error) {
	resp, err := c.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       email,
		DisplayName: displayName,
		Password:    password,
	}))
	if err != nil {
		return nil, classify("register", err)
	}
	c.setToken(resp.Msg.Token)
	return resp.Msg.User.Model(), nil
}

// Login signs the session in.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := c.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{
		Email:    email,
		Password: password,
	}))
	if err != nil {
		return nil, classify("login", err)
	}
	c.setToken(resp.Msg.Token)
	return resp.Msg.User.Model(), nil
}

// CurrentUser returns the signed-in member, or nil for an anonymous session.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	if c.Token() == "" {
		return nil, nil
	}
	resp, err := c.auth.GetCurrentUser(ctx, connect.NewRequest(&api.GetCurrentUserRequest{}))
	if connect.CodeOf(err) == connect.CodeUnauthenticated {
		return nil, nil
	}
	if err != nil {
		return nil, classify("current user", err)
	}
	return resp.Msg.User.Model(), nil
}

func (c *Client) ListAvailableGroups(ctx context.Context) ([]models.RemoteGroup, error) {
	resp, err := c.groups.ListAvailableGroups(ctx, connect.NewRequest(&api.ListAvailableGroupsRequest{}))
	if err != nil {
		return nil, classify("list available groups", err)
	}
	return remoteGroups(resp.Msg.Groups), nil
}

func (c *Client) GetGroup(ctx context.Context, groupID string) (*models.RemoteGroup, error) {
	resp, err := c.groups.GetGroup(ctx, connect.NewRequest(&api.GetGroupRequest{GroupID: groupID}))
	if err != nil {
		return nil, classify("get group", err)
	}
	return resp.Msg.Group.Model(), nil
}

func (c *Client) GroupMemberships(ctx context.Context, groupID string) ([]models.Membership, error) {
	resp, err := c.groups.GetGroupMemberships(ctx, connect.NewRequest(&api.GetGroupMembershipsRequest{GroupID: groupID}))
	if err != nil {
		return nil, classify("get memberships", err)
	}
	out := make([]models.Membership, len(resp.Msg.Memberships))
	for i, m := range resp.Msg.Memberships {
		out[i] = *m.Model()
	}
	return out, nil
}

// UserGroups returns the groups the signed-in member holds a slot in.
func (c *Client) UserGroups(ctx context.Context) ([]models.RemoteGroup, error) {
	resp, err := c.groups.GetUserGroups(ctx, connect.NewRequest(&api.GetUserGroupsRequest{}))
	if err != nil {
		return nil, classify("get user groups", err)
	}
	return remoteGroups(resp.Msg.Groups), nil
}

func (c *Client) CreateGroup(ctx context.Context, spec models.GroupSpec) (*models.RemoteGroup, error) {
	resp, err := c.groups.CreateGroup(ctx, connect.NewRequest(&api.CreateGroupRequest{
		Name:           spec.Name,
		Description:    spec.Description,
		MonthlyAmount:  spec.MonthlyAmount,
		DurationCycles: spec.DurationCycles,
		TotalMembers:   spec.TotalMembers,
		PayoutOrder:    string(spec.PayoutOrder),
	}))
	if err != nil {
		switch connect.CodeOf(err) {
		case connect.CodeInvalidArgument, connect.CodeUnauthenticated, connect.CodePermissionDenied:
			return nil, &groups.CreationError{Reason: message(err)}
		}
		return nil, classify("create group", err)
	}
	return resp.Msg.Group.Model(), nil
}

// JoinGroup claims a slot for the signed-in member. Ledger refusals come back
// as *allocation.JoinError carrying the matching sentinel.
func (c *Client) JoinGroup(ctx context.Context, groupID string, preferredSlot *int) (*models.Membership, error) {
	resp, err := c.groups.JoinGroup(ctx, connect.NewRequest(&api.JoinGroupRequest{
		GroupID:       groupID,
		PreferredSlot: preferredSlot,
	}))
	if err != nil {
		var sentinel error
		switch connect.CodeOf(err) {
		case connect.CodeAlreadyExists:
			sentinel = allocation.ErrAlreadyMember
		case connect.CodeAborted:
			sentinel = allocation.ErrSlotUnavailable
		case connect.CodeFailedPrecondition:
			sentinel = allocation.ErrGroupNotJoinable
		case connect.CodeNotFound:
			sentinel = allocation.ErrGroupNotFound
		case connect.CodeInvalidArgument, connect.CodeUnauthenticated, connect.CodePermissionDenied:
		default:
			return nil, classify("join group", err)
		}
		return nil, &allocation.JoinError{Reason: message(err), Err: sentinel}
	}
	return resp.Msg.Membership.Model(), nil
}

// MakePayment pays the signed-in member's contribution for a cycle.
func (c *Client) MakePayment(ctx context.Context, groupID string, cycle int) (*models.CyclePayment, error) {
	resp, err := c.payments.MakePayment(ctx, connect.NewRequest(&api.MakePaymentRequest{
		GroupID:     groupID,
		CycleNumber: cycle,
	}))
	if err != nil {
		return nil, classify("make payment", err)
	}
	return resp.Msg.Payment.Model(), nil
}

// Payments lists the signed-in member's payments in a group.
func (c *Client) Payments(ctx context.Context, groupID string) ([]models.CyclePayment, error) {
	resp, err := c.payments.GetUserPayments(ctx, connect.NewRequest(&api.GetUserPaymentsRequest{GroupID: groupID}))
	if err != nil {
		return nil, classify("get payments", err)
	}
	out := make([]models.CyclePayment, len(resp.Msg.Payments))
	for i, p := range resp.Msg.Payments {
		out[i] = *p.Model()
	}
	return out, nil
}

// Standing returns a member's standing; an empty userID means the caller.
func (c *Client) Standing(ctx context.Context, groupID, userID string) (*api.Standing, error) {
	resp, err := c.payments.GetMemberStanding(ctx, connect.NewRequest(&api.GetMemberStandingRequest{
		GroupID: groupID,
		UserID:  userID,
	}))
	if err != nil {
		return nil, classify("get standing", err)
	}
	return resp.Msg.Standing, nil
}

// classify wraps transport-level failures with ErrRepositoryUnavailable and
// missing records with ErrGroupNotFound. Other ledger errors pass through.
func classify(op string, err error) error {
	switch connect.CodeOf(err) {
	case connect.CodeNotFound:
		return fmt.Errorf("%s: %w", op, allocation.ErrGroupNotFound)
	case connect.CodeUnavailable, connect.CodeDeadlineExceeded, connect.CodeCanceled,
		connect.CodeUnknown, connect.CodeInternal, connect.CodeResourceExhausted:
		return fmt.Errorf("%s: %w: %v", op, allocation.ErrRepositoryUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func message(err error) string {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Message()
	}
	return err.Error()
}

func remoteGroups(in []*api.Group) []models.RemoteGroup {
	out := make([]models.RemoteGroup, len(in))
	for i, g := range in {
		out[i] = *g.Model()
	}
	return out
}
