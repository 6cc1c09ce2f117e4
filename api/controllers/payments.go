package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const sessionIDParam = "session_id"

// PaymentReturns is the checkout surface the return routes drive.
type PaymentReturns interface {
	HandleReturn(ctx context.Context, sessionID string) (*checkout.Verification, error)
	HandleCancel(ctx context.Context) (int64, bool)
}

type paymentResultResponse struct {
	Step           enums.CheckoutStep `json:"step"`
	SessionID      string             `json:"session_id,omitempty"`
	Attempts       int                `json:"attempts,omitempty"`
	PendingOrderID int64              `json:"pending_order_id,omitempty"`
	Message        string             `json:"message,omitempty"`
}

// PaymentSuccess starts verification for the returning session and waits
// up to wait for it to settle. A verification still running when the wait
// ends answers 202 and keeps going in the background.
func PaymentSuccess(svc PaymentReturns, wait time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		sessionID, err := validators.RequireQueryString(r, sessionIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		verification, err := svc.HandleReturn(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), wait)
		defer cancel()
		step, err := verification.Wait(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			responses.WriteSuccessStatus(w, http.StatusAccepted, paymentResultResponse{
				Step:      step,
				SessionID: sessionID,
				Attempts:  verification.Attempts(),
			})
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, paymentResultResponse{
			Step:      step,
			SessionID: sessionID,
			Attempts:  verification.Attempts(),
		})
	}
}

// PaymentCancel records the abandoned payment. The pending order stays
// available for a later attempt.
func PaymentCancel(svc PaymentReturns, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}

		resp := paymentResultResponse{
			Step:    enums.CheckoutStepPaymentCancelled,
			Message: "Payment cancelled. Your order is saved and can be paid later.",
		}
		if orderID, ok := svc.HandleCancel(r.Context()); ok {
			resp.PendingOrderID = orderID
		}
		responses.WriteSuccess(w, resp)
	}
}
