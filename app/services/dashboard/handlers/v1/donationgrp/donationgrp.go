// Package donationgrp maintains the group of handlers for the donation
// contract.
package donationgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/ballot/business/core/donation"
	"github.com/ardanlabs/ballot/business/core/session"
	"github.com/ardanlabs/ballot/business/sys/validate"
	"github.com/ardanlabs/ballot/business/web/errs"
	"github.com/ardanlabs/ballot/business/web/refresh"
	"github.com/ardanlabs/ballot/foundation/web"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// qrSize is the width and height in pixels of the beneficiary QR code.
const qrSize = 256

// Handlers manages the set of donation endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Session *session.Session
	Panel   *donation.Panel
}

// Beneficiary returns the current beneficiary.
func (h Handlers) Beneficiary(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := refresh.Load(ctx, r, h.Session.Connection(), h.Panel.CurrentBeneficiary); err != nil {
		return err
	}

	return web.Respond(ctx, w, AppBeneficiary{Account: h.Panel.CurrentBeneficiary.Value()}, http.StatusOK)
}

// BeneficiaryQR returns a PNG QR code of the beneficiary's account so a
// wallet can scan it.
func (h Handlers) BeneficiaryQR(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := refresh.Load(ctx, r, h.Session.Connection(), h.Panel.CurrentBeneficiary); err != nil {
		return err
	}

	account := h.Panel.CurrentBeneficiary.Value()
	if account == "" {
		return errs.NewTrusted(errors.New("beneficiary not loaded"), http.StatusNotFound)
	}

	png, err := qrcode.Encode(account, qrcode.Medium, qrSize)
	if err != nil {
		return fmt.Errorf("encoding qr code: %w", err)
	}

	return web.RespondRaw(ctx, w, png, "image/png", http.StatusOK)
}

// Donations returns every donation.
func (h Handlers) Donations(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := refresh.Load(ctx, r, h.Session.Connection(), h.Panel.Donations); err != nil {
		return err
	}

	return web.Respond(ctx, w, h.Panel.Donations.Value(), http.StatusOK)
}

// Donation returns a single donation by id. Ids start at 1.
func (h Handlers) Donation(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseInt(web.Param(r, "id"), 10, 32)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid donation id: %w", err), http.StatusBadRequest)
	}

	d, err := h.Panel.FetchDonation(ctx, h.Session.Connection(), int32(id))
	if err != nil {
		return errs.FromAction(err)
	}

	return web.Respond(ctx, w, d, http.StatusOK)
}

// TotalRaised returns the sum of all donations.
func (h Handlers) TotalRaised(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := refresh.Load(ctx, r, h.Session.Connection(), h.Panel.TotalRaised); err != nil {
		return err
	}

	return web.Respond(ctx, w, AppTotal{Total: h.Panel.TotalRaised.Value()}, http.StatusOK)
}

// Donate sends funds from the connected account to the beneficiary.
func (h Handlers) Donate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var d Donate
	if err := web.Decode(r, &d); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(d); err != nil {
		return err
	}

	out, err := h.Panel.Donate(ctx, h.Session.Connection(), d.Amount)
	if err != nil {
		return errs.FromAction(err)
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// ChangeBeneficiary changes who receives the donations.
func (h Handlers) ChangeBeneficiary(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var cb ChangeBeneficiary
	if err := web.Decode(r, &cb); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(cb); err != nil {
		return err
	}

	out, err := h.Panel.ChangeBeneficiary(ctx, h.Session.Connection(), cb.Account)
	if err != nil {
		return errs.FromAction(err)
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}
