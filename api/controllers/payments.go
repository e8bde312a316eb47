package controllers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/viraldeals/viraldeals-backend/api/responses"
	"github.com/viraldeals/viraldeals-backend/api/validators"
	paymentsvc "github.com/viraldeals/viraldeals-backend/internal/payments"
	pkgerrors "github.com/viraldeals/viraldeals-backend/pkg/errors"
	"github.com/viraldeals/viraldeals-backend/pkg/logger"
)

// PaymentsInitiate starts a PhonePe payment for a pending prepaid order and
// returns the hosted checkout redirect.
func PaymentsInitiate(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.InitiateForOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"merchant_transaction_id": resp.MerchantTransactionID,
			"redirect_url":            resp.RedirectURL,
		})
	}
}

// PaymentsStatus returns the payment state for one of the caller's orders.
func PaymentsStatus(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.StatusForOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, payment)
	}
}

type phonePeCallbackRequest struct {
	Response string `json:"response" validate:"required"`
}

type phonePeCallbackPayload struct {
	Data struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
	} `json:"data"`
}

// PaymentsCallback receives PhonePe's server-to-server notification. The
// callback body is treated as a hint only: the authoritative state comes from
// a status check against the gateway before anything is recorded.
func PaymentsCallback(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload phonePeCallbackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(payload.Response)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback payload"))
			return
		}

		var callback phonePeCallbackPayload
		if err := json.Unmarshal(decoded, &callback); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback payload"))
			return
		}
		if callback.Data.MerchantTransactionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing merchant transaction id"))
			return
		}

		outcome, err := svc.PollAndSettle(r.Context(), callback.Data.MerchantTransactionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"outcome": string(outcome)})
	}
}
