package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/AbdoViper23/halaqa-Save/pkg/api"
)

// GroupServiceHandler is implemented by the ledger's group service.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListAvailableGroups(context.Context, *connect.Request[api.ListAvailableGroupsRequest]) (*connect.Response[api.ListAvailableGroupsResponse], error)
	JoinGroup(context.Context, *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error)
	GetGroupMemberships(context.Context, *connect.Request[api.GetGroupMembershipsRequest]) (*connect.Response[api.GetGroupMembershipsResponse], error)
	GetUserGroups(context.Context, *connect.Request[api.GetUserGroupsRequest]) (*connect.Response[api.GetUserGroupsResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service implementation.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	create := connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...)
	get := connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...)
	listAvailable := connect.NewUnaryHandler(GroupServiceListAvailableGroupsProcedure, svc.ListAvailableGroups, opts...)
	join := connect.NewUnaryHandler(GroupServiceJoinGroupProcedure, svc.JoinGroup, opts...)
	memberships := connect.NewUnaryHandler(GroupServiceGetGroupMembershipsProcedure, svc.GetGroupMemberships, opts...)
	userGroups := connect.NewUnaryHandler(GroupServiceGetUserGroupsProcedure, svc.GetUserGroups, opts...)
	return "/" + GroupServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GroupServiceCreateGroupProcedure:
			create.ServeHTTP(w, r)
		case GroupServiceGetGroupProcedure:
			get.ServeHTTP(w, r)
		case GroupServiceListAvailableGroupsProcedure:
			listAvailable.ServeHTTP(w, r)
		case GroupServiceJoinGroupProcedure:
			join.ServeHTTP(w, r)
		case GroupServiceGetGroupMembershipsProcedure:
			memberships.ServeHTTP(w, r)
		case GroupServiceGetUserGroupsProcedure:
			userGroups.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// GroupServiceClient is a client for the ledger's group service.
type GroupServiceClient interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error)
	ListAvailableGroups(context.Context, *connect.Request[api.ListAvailableGroupsRequest]) (*connect.Response[api.ListAvailableGroupsResponse], error)
	JoinGroup(context.Context, *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error)
	GetGroupMemberships(context.Context, *connect.Request[api.GetGroupMembershipsRequest]) (*connect.Response[api.GetGroupMembershipsResponse], error)
	GetUserGroups(context.Context, *connect.Request[api.GetUserGroupsRequest]) (*connect.Response[api.GetUserGroupsResponse], error)
}

type groupServiceClient struct {
	create        *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	get           *connect.Client[api.GetGroupRequest, api.GetGroupResponse]
	listAvailable *connect.Client[api.ListAvailableGroupsRequest, api.ListAvailableGroupsResponse]
	join          *connect.Client[api.JoinGroupRequest, api.JoinGroupResponse]
	memberships   *connect.Client[api.GetGroupMembershipsRequest, api.GetGroupMembershipsResponse]
	userGroups    *connect.Client[api.GetUserGroupsRequest, api.GetUserGroupsResponse]
}

// NewGroupServiceClient constructs a client for the group service at baseURL.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &groupServiceClient{
		create:        connect.NewClient[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		get:           connect.NewClient[api.GetGroupRequest, api.GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listAvailable: connect.NewClient[api.ListAvailableGroupsRequest, api.ListAvailableGroupsResponse](httpClient, baseURL+GroupServiceListAvailableGroupsProcedure, opts...),
		join:          connect.NewClient[api.JoinGroupRequest, api.JoinGroupResponse](httpClient, baseURL+GroupServiceJoinGroupProcedure, opts...),
		memberships:   connect.NewClient[api.GetGroupMembershipsRequest, api.GetGroupMembershipsResponse](httpClient, baseURL+GroupServiceGetGroupMembershipsProcedure, opts...),
		userGroups:    connect.NewClient[api.GetUserGroupsRequest, api.GetUserGroupsResponse](httpClient, baseURL+GroupServiceGetUserGroupsProcedure, opts...),
	}
}

func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.create.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	return c.get.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListAvailableGroups(ctx context.Context, req *connect.Request[api.ListAvailableGroupsRequest]) (*connect.Response[api.ListAvailableGroupsResponse], error) {
	return c.listAvailable.CallUnary(ctx, req)
}

func (c *groupServiceClient) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	return c.join.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroupMemberships(ctx context.Context, req *connect.Request[api.GetGroupMembershipsRequest]) (*connect.Response[api.GetGroupMembershipsResponse], error) {
	return c.memberships.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetUserGroups(ctx context.Context, req *connect.Request[api.GetUserGroupsRequest]) (*connect.Response[api.GetUserGroupsResponse], error) {
	return c.userGroups.CallUnary(ctx, req)
}
