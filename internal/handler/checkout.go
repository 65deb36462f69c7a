package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/campomarket/storefront/internal/domain/checkout"
	"github.com/campomarket/storefront/internal/domain/order"
	"github.com/campomarket/storefront/internal/payment"
)

type submitAuthRequest struct {
	Token string `json:"token"`
}

type stepBackRequest struct {
	Step string `json:"step"`
}

// checkoutResponse reports the draft's progress. Entered data is echoed
// back so earlier steps pre-fill after backward navigation; payment
// details are reduced to the method kind.
type checkoutResponse struct {
	Step          string               `json:"step"`
	User          *userResponse        `json:"user,omitempty"`
	Fiscal        *checkout.FiscalData `json:"fiscal,omitempty"`
	Delivery      *order.Delivery      `json:"delivery,omitempty"`
	PaymentMethod string               `json:"payment_method,omitempty"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BeginCheckout starts (or resumes) the session's checkout.
func (h *Handler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	o := h.checkouts.Begin(sessionID(r))
	respondJSON(w, http.StatusCreated, toCheckoutResponse(o.Draft()))
}

// GetCheckout returns the in-flight draft.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	o, err := h.checkouts.Get(sessionID(r))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCheckoutResponse(o.Draft()))
}

// CancelCheckout discards the session's draft.
func (h *Handler) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	h.checkouts.Cancel(sessionID(r))
	w.WriteHeader(http.StatusNoContent)
}

// SubmitAuth resolves the session token, completing the first step.
func (h *Handler) SubmitAuth(w http.ResponseWriter, r *http.Request) {
	var req submitAuthRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.checkouts.Get(sessionID(r))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	draft, err := o.SubmitAuth(r.Context(), req.Token)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCheckoutResponse(draft))
}

// SubmitFiscal stores the billing identity.
func (h *Handler) SubmitFiscal(w http.ResponseWriter, r *http.Request) {
	var data checkout.FiscalData
	if !decodeBody(w, r, &data) {
		return
	}

	o, err := h.checkouts.Get(sessionID(r))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	draft, err := o.SubmitFiscal(data)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCheckoutResponse(draft))
}

// SubmitDelivery stores the delivery destination.
func (h *Handler) SubmitDelivery(w http.ResponseWriter, r *http.Request) {
	var info order.Delivery
	if !decodeBody(w, r, &info) {
		return
	}

	o, err := h.checkouts.Get(sessionID(r))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	draft, err := o.SubmitDelivery(info)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCheckoutResponse(draft))
}

// SubmitPayment stores the payment method details.
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	var details payment.Details
	if !decodeBody(w, r, &details) {
		return
	}

	o, err := h.checkouts.Get(sessionID(r))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	draft, err := o.SubmitPayment(details)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCheckoutResponse(draft))
}

// StepBack navigates to an earlier step, preserving entered data.
func (h *Handler) StepBack(w http.ResponseWriter, r *http.Request) {
	var req stepBackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	step, ok := parseStep(req.Step)
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown step "+req.Step)
		return
	}

	o, err := h.checkouts.Get(sessionID(r))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	draft, err := o.Back(step)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCheckoutResponse(draft))
}

// CompleteCheckout authorizes the payment, creates the order, and
// clears the cart. A duplicate completion returns the order already
// created instead of charging twice.
func (h *Handler) CompleteCheckout(w http.ResponseWriter, r *http.Request) {
	o, err := h.checkouts.Get(sessionID(r))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	ord, err := o.Complete(r.Context())
	switch {
	case errors.Is(err, checkout.ErrAlreadyCompleted) && ord != nil:
		respondJSON(w, http.StatusOK, toOrderResponse(ord))
		return
	case err != nil:
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toOrderResponse(ord))
}

func parseStep(s string) (checkout.Step, bool) {
	for _, step := range []checkout.Step{
		checkout.StepAuth,
		checkout.StepFiscal,
		checkout.StepDelivery,
		checkout.StepPayment,
	} {
		if step.String() == s {
			return step, true
		}
	}
	return 0, false
}

func toCheckoutResponse(d checkout.Draft) checkoutResponse {
	resp := checkoutResponse{
		Step:     d.Step.String(),
		Fiscal:   d.Fiscal,
		Delivery: d.Delivery,
	}
	if d.User != nil {
		resp.User = &userResponse{ID: d.User.ID, Name: d.User.Name, Email: d.User.Email}
	}
	if d.Payment != nil {
		resp.PaymentMethod = string(d.Payment.Kind)
	}
	return resp
}
