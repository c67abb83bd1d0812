package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/AbdoViper23/halaqa-Save/pkg/api"
)

// PaymentServiceHandler is implemented by the ledger's payment service.
type PaymentServiceHandler interface {
	MakePayment(context.Context, *connect.Request[api.MakePaymentRequest]) (*connect.Response[api.MakePaymentResponse], error)
	GetUserPayments(context.Context, *connect.Request[api.GetUserPaymentsRequest]) (*connect.Response[api.GetUserPaymentsResponse], error)
	GetMemberStanding(context.Context, *connect.Request[api.GetMemberStandingRequest]) (*connect.Response[api.GetMemberStandingResponse], error)
}

// NewPaymentServiceHandler builds an HTTP handler from the service implementation.
func NewPaymentServiceHandler(svc PaymentServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	pay := connect.NewUnaryHandler(PaymentServiceMakePaymentProcedure, svc.MakePayment, opts...)
	payments := connect.NewUnaryHandler(PaymentServiceGetUserPaymentsProcedure, svc.GetUserPayments, opts...)
	standing := connect.NewUnaryHandler(PaymentServiceGetMemberStandingProcedure, svc.GetMemberStanding, opts...)
	return "/" + PaymentServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PaymentServiceMakePaymentProcedure:
			pay.ServeHTTP(w, r)
		case PaymentServiceGetUserPaymentsProcedure:
			payments.ServeHTTP(w, r)
		case PaymentServiceGetMemberStandingProcedure:
			standing.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// PaymentServiceClient is a client for the ledger's payment service.
type PaymentServiceClient interface {
	MakePayment(context.Context, *connect.Request[api.MakePaymentRequest]) (*connect.Response[api.MakePaymentResponse], error)
	GetUserPayments(context.Context, *connect.Request[api.GetUserPaymentsRequest]) (*connect.Response[api.GetUserPaymentsResponse], error)
	GetMemberStanding(context.Context, *connect.Request[api.GetMemberStandingRequest]) (*connect.Response[api.GetMemberStandingResponse], error)
}

type paymentServiceClient struct {
	pay      *connect.Client[api.MakePaymentRequest, api.MakePaymentResponse]
	payments *connect.Client[api.GetUserPaymentsRequest, api.GetUserPaymentsResponse]
	standing *connect.Client[api.GetMemberStandingRequest, api.GetMemberStandingResponse]
}

// NewPaymentServiceClient constructs a client for the payment service at baseURL.
func NewPaymentServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PaymentServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &paymentServiceClient{
		pay:      connect.NewClient[api.MakePaymentRequest, api.MakePaymentResponse](httpClient, baseURL+PaymentServiceMakePaymentProcedure, opts...),
		payments: connect.NewClient[api.GetUserPaymentsRequest, api.GetUserPaymentsResponse](httpClient, baseURL+PaymentServiceGetUserPaymentsProcedure, opts...),
		standing: connect.NewClient[api.GetMemberStandingRequest, api.GetMemberStandingResponse](httpClient, baseURL+PaymentServiceGetMemberStandingProcedure, opts...),
	}
}

func (c *paymentServiceClient) MakePayment(ctx context.Context, req *connect.Request[api.MakePaymentRequest]) (*connect.Response[api.MakePaymentResponse], error) {
	return c.pay.CallUnary(ctx, req)
}

func (c *paymentServiceClient) GetUserPayments(ctx context.Context, req *connect.Request[api.GetUserPaymentsRequest]) (*connect.Response[api.GetUserPaymentsResponse], error) {
	return c.payments.CallUnary(ctx, req)
}

func (c *paymentServiceClient) GetMemberStanding(ctx context.Context, req *connect.Request[api.GetMemberStandingRequest]) (*connect.Response[api.GetMemberStandingResponse], error) {
	return c.standing.CallUnary(ctx, req)
}
