package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/AbdoViper23/halaqa-Save/internal/auth"
	"github.com/AbdoViper23/halaqa-Save/internal/calculator"
	"github.com/AbdoViper23/halaqa-Save/internal/metrics"
	"github.com/AbdoViper23/halaqa-Save/internal/middleware"
	"github.com/AbdoViper23/halaqa-Save/internal/models"
	"github.com/AbdoViper23/halaqa-Save/internal/storage"
	"github.com/AbdoViper23/halaqa-Save/pkg/api"
	"github.com/AbdoViper23/halaqa-Save/pkg/api/apiconnect"
)

var _ apiconnect.PaymentServiceHandler = (*PaymentService)(nil)

// PaymentService implements the Connect PaymentService.
type PaymentService struct {
	store storage.Store
}

// NewPaymentService creates a new PaymentService with the given storage backend.
func NewPaymentService(store storage.Store) *PaymentService {
	return &PaymentService{store: store}
}

// MakePayment records the caller's contribution for one cycle.
func (s *PaymentService) MakePayment(ctx context.Context, req *connect.Request[api.MakePaymentRequest]) (*connect.Response[api.MakePaymentResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("MakePayment request received",
		"group_id", req.Msg.GroupID,
		"cycle", req.Msg.CycleNumber,
		"user_id", userID,
	)

	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	if err := api.Validate(req.Msg); err != nil {
		return nil, invalidArgument(err)
	}

	payment := &models.CyclePayment{
		GroupID:     req.Msg.GroupID,
		UserID:      userID,
		CycleNumber: req.Msg.CycleNumber,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		slog.Warn("MakePayment failed", "group_id", req.Msg.GroupID, "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	metrics.RecordPayment()

	slog.Info("Payment recorded", "payment_id", payment.ID, "amount", payment.Amount)

	return connect.NewResponse(&api.MakePaymentResponse{Payment: api.FromPayment(payment)}), nil
}

// GetUserPayments lists the caller's payments in a group.
func (s *PaymentService) GetUserPayments(ctx context.Context, req *connect.Request[api.GetUserPaymentsRequest]) (*connect.Response[api.GetUserPaymentsResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	if err := api.Validate(req.Msg); err != nil {
		return nil, invalidArgument(err)
	}

	slog.Info("GetUserPayments request received", "group_id", req.Msg.GroupID, "user_id", userID)

	payments, err := s.store.ListPayments(ctx, req.Msg.GroupID, userID)
	if err != nil {
		slog.Error("GetUserPayments failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := make([]*api.Payment, len(payments))
	for i, p := range payments {
		out[i] = api.FromPayment(p)
	}
	return connect.NewResponse(&api.GetUserPaymentsResponse{Payments: out}), nil
}

// GetMemberStanding computes a member's contribution and payout position.
// Only members of the group can see standings.
func (s *PaymentService) GetMemberStanding(ctx context.Context, req *connect.Request[api.GetMemberStandingRequest]) (*connect.Response[api.GetMemberStandingResponse], error) {
	callerID := middleware.GetUserID(ctx)
	if callerID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	if err := api.Validate(req.Msg); err != nil {
		return nil, invalidArgument(err)
	}
	memberID := req.Msg.UserID
	if memberID == "" {
		memberID = callerID
	}

	slog.Info("GetMemberStanding request received",
		"group_id", req.Msg.GroupID,
		"member_id", memberID,
		"user_id", callerID,
	)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	memberships, err := s.store.ListMemberships(ctx, group.ID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	var member *models.Membership
	callerIsMember := false
	for _, m := range memberships {
		if m.UserID == callerID {
			callerIsMember = true
		}
		if m.UserID == memberID {
			member = m
		}
	}
	if !callerIsMember {
		return nil, connect.NewError(connect.CodePermissionDenied, storage.ErrNotMember)
	}
	if member == nil {
		return nil, connect.NewError(connect.CodeNotFound, storage.ErrNotMember)
	}

	payments, err := s.store.ListPayments(ctx, group.ID, memberID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	standing, err := calculator.CalculateStanding(termsOf(group), positionOf(member, payments))
	if err != nil {
		slog.Error("GetMemberStanding failed", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.GetMemberStandingResponse{
		Standing: &api.Standing{
			UserID:            memberID,
			GroupID:           group.ID,
			SlotNumber:        standing.SlotNumber,
			TotalCommitment:   standing.TotalCommitment,
			PayoutAmount:      standing.PayoutAmount,
			Contributed:       standing.Contributed,
			Expected:          standing.Expected,
			Outstanding:       standing.Outstanding,
			OverdueCycles:     standing.OverdueCycles,
			PayoutMonth:       standing.PayoutMonth,
			PayoutReceived:    standing.PayoutReceived,
			CyclesUntilPayout: standing.CyclesUntilPayout,
			NetPosition:       standing.NetPosition,
		},
	}), nil
}

func termsOf(g *models.RemoteGroup) calculator.GroupTerms {
	status := models.GroupStatus(g.Status)
	return calculator.GroupTerms{
		MonthlyAmount:  g.MonthlyAmount,
		DurationCycles: g.DurationCycles,
		TotalMembers:   g.TotalMembers,
		CurrentCycle:   g.CurrentCycle,
		Started:        status == models.GroupActive || status == models.GroupCompleted,
		Completed:      status == models.GroupCompleted,
	}
}

func positionOf(m *models.Membership, payments []*models.CyclePayment) calculator.MemberPosition {
	pos := calculator.MemberPosition{
		MemberID:       m.UserID,
		SlotNumber:     m.SlotNumber,
		PayoutMonth:    m.PayoutMonth,
		PayoutReceived: m.HasReceivedPayout,
	}
	for _, p := range payments {
		if p.Status == models.PaymentPaid {
			pos.Contributions = append(pos.Contributions, calculator.Contribution{Cycle: p.CycleNumber, Amount: p.Amount})
		}
	}
	return pos
}
