package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/AbdoViper23/halaqa-Save/internal/auth"
	"github.com/AbdoViper23/halaqa-Save/internal/metrics"
	"github.com/AbdoViper23/halaqa-Save/internal/middleware"
	"github.com/AbdoViper23/halaqa-Save/internal/models"
	"github.com/AbdoViper23/halaqa-Save/internal/storage"
	"github.com/AbdoViper23/halaqa-Save/pkg/api"
	"github.com/AbdoViper23/halaqa-Save/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService. It is the authority on
// slot ownership: every join is committed here.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a new Pending group with every slot free.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"total_members", req.Msg.TotalMembers,
		"duration_cycles", req.Msg.DurationCycles,
		"user_id", userID,
	)

	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	if err := api.Validate(req.Msg); err != nil {
		return nil, invalidArgument(err)
	}

	group := &models.RemoteGroup{
		Name:           req.Msg.Name,
		Description:    req.Msg.Description,
		MonthlyAmount:  req.Msg.MonthlyAmount,
		DurationCycles: req.Msg.DurationCycles,
		TotalMembers:   req.Msg.TotalMembers,
		PayoutOrder:    models.PayoutOrder(req.Msg.PayoutOrder),
		CreatedBy:      userID,
	}

	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	metrics.RecordGroupCreated(string(group.PayoutOrder))

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&api.CreateGroupResponse{Group: api.FromGroup(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, invalidArgument(err)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Warn("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetGroupResponse{Group: api.FromGroup(group)}), nil
}

// ListAvailableGroups returns Pending groups with free slots.
func (s *GroupService) ListAvailableGroups(ctx context.Context, req *connect.Request[api.ListAvailableGroupsRequest]) (*connect.Response[api.ListAvailableGroupsResponse], error) {
	slog.Info("ListAvailableGroups request received")

	groups, err := s.store.ListAvailableGroups(ctx)
	if err != nil {
		slog.Error("ListAvailableGroups failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("ListAvailableGroups successful", "count", len(groups))

	return connect.NewResponse(&api.ListAvailableGroupsResponse{Groups: api.FromGroups(groups)}), nil
}

// JoinGroup assigns the caller a slot. A nil preferred slot takes the lowest
// free one.
func (s *GroupService) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("JoinGroup request received",
		"group_id", req.Msg.GroupID,
		"user_id", userID,
		"preferred_slot", req.Msg.PreferredSlot,
	)

	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	if err := api.Validate(req.Msg); err != nil {
		return nil, invalidArgument(err)
	}

	membership, err := s.store.JoinGroup(ctx, req.Msg.GroupID, userID, req.Msg.PreferredSlot)
	metrics.RecordJoin(joinOutcome(err))
	if err != nil {
		if raced(err) {
			slog.Info("JoinGroup rejected", "group_id", req.Msg.GroupID, "user_id", userID, "reason", err)
		} else {
			slog.Warn("JoinGroup failed", "group_id", req.Msg.GroupID, "user_id", userID, "error", err)
		}
		return nil, toConnectError(err)
	}

	slog.Info("Group joined",
		"group_id", membership.GroupID,
		"user_id", userID,
		"slot", membership.SlotNumber,
		"payout_month", membership.PayoutMonth,
	)

	return connect.NewResponse(&api.JoinGroupResponse{Membership: api.FromMembership(membership)}), nil
}

// GetGroupMemberships lists who holds which slot.
func (s *GroupService) GetGroupMemberships(ctx context.Context, req *connect.Request[api.GetGroupMembershipsRequest]) (*connect.Response[api.GetGroupMembershipsResponse], error) {
	slog.Info("GetGroupMemberships request received", "group_id", req.Msg.GroupID)

	if err := api.Validate(req.Msg); err != nil {
		return nil, invalidArgument(err)
	}
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}

	memberships, err := s.store.ListMemberships(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroupMemberships failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Membership, len(memberships))
	for i, m := range memberships {
		out[i] = api.FromMembership(m)
	}
	return connect.NewResponse(&api.GetGroupMembershipsResponse{Memberships: out}), nil
}

// GetUserGroups lists the groups the caller holds a slot in.
func (s *GroupService) GetUserGroups(ctx context.Context, req *connect.Request[api.GetUserGroupsRequest]) (*connect.Response[api.GetUserGroupsResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	slog.Info("GetUserGroups request received", "user_id", userID)

	groups, err := s.store.ListUserGroups(ctx, userID)
	if err != nil {
		slog.Error("GetUserGroups failed", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.GetUserGroupsResponse{Groups: api.FromGroups(groups)}), nil
}
