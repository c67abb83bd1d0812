// Package apiconnect wires the ledger services to Connect handlers and clients.
package apiconnect

import (
	"connectrpc.com/connect"

	"github.com/AbdoViper23/halaqa-Save/pkg/api"
)

const (
	AuthServiceName    = "halaqa.v1.AuthService"
	GroupServiceName   = "halaqa.v1.GroupService"
	PaymentServiceName = "halaqa.v1.PaymentService"
)

// Fully-qualified procedure names, usable as mux paths and in interceptors.
const (
	AuthServiceRegisterProcedure       = "/halaqa.v1.AuthService/Register"
	AuthServiceLoginProcedure          = "/halaqa.v1.AuthService/Login"
	AuthServiceGetCurrentUserProcedure = "/halaqa.v1.AuthService/GetCurrentUser"

	GroupServiceCreateGroupProcedure         = "/halaqa.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure            = "/halaqa.v1.GroupService/GetGroup"
	GroupServiceListAvailableGroupsProcedure = "/halaqa.v1.GroupService/ListAvailableGroups"
	GroupServiceJoinGroupProcedure           = "/halaqa.v1.GroupService/JoinGroup"
	GroupServiceGetGroupMembershipsProcedure = "/halaqa.v1.GroupService/GetGroupMemberships"
	GroupServiceGetUserGroupsProcedure       = "/halaqa.v1.GroupService/GetUserGroups"

	PaymentServiceMakePaymentProcedure       = "/halaqa.v1.PaymentService/MakePayment"
	PaymentServiceGetUserPaymentsProcedure   = "/halaqa.v1.PaymentService/GetUserPayments"
	PaymentServiceGetMemberStandingProcedure = "/halaqa.v1.PaymentService/GetMemberStanding"
)

// PublicProcedures can be called without a token.
var PublicProcedures = []string{
	AuthServiceRegisterProcedure,
	AuthServiceLoginProcedure,
	GroupServiceGetGroupProcedure,
	GroupServiceListAvailableGroupsProcedure,
	GroupServiceGetGroupMembershipsProcedure,
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
}
