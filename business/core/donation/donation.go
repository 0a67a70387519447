// Package donation provides the dashboard operations on the donation
// contract.
package donation

import (
	"context"
	"fmt"

	"github.com/ardanlabs/ballot/business/core/action"
	"github.com/ardanlabs/ballot/business/core/contract"
	"github.com/ardanlabs/ballot/business/core/session"
	"go.uber.org/zap"
)

// Donation is a single donation made to the beneficiary.
type Donation struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

// Panel holds the forms, controls and lists of the donation page.
type Panel struct {
	submit *action.Submitter

	Amount         action.Field
	Beneficiary    action.Field
	DonateCtl      action.Control
	BeneficiaryCtl action.Control

	CurrentBeneficiary *action.Fetcher[string]
	Donations          *action.Fetcher[[]Donation]
	TotalRaised        *action.Fetcher[uint64]
	DonationByID       *action.Fetcher[Donation]
}

// NewPanel constructs the donation panel.
func NewPanel(log *zap.SugaredLogger, notify action.Notifier) *Panel {
	p := Panel{
		submit: action.NewSubmitter(log, notify),

		CurrentBeneficiary: action.NewFetcher[string](log, notify, action.Query{
			Contract: contract.Donation,
			Method:   "getBeneficiary",
			ErrorMsg: "Error while fetching get beneficiary. Try again…",
		}, nil),

		Donations: action.NewFetcher[[]Donation](log, notify, action.Query{
			Contract: contract.Donation,
			Method:   "getDonations",
			ErrorMsg: "Error while fetching donations. Try again…",
		}, nil),

		TotalRaised: action.NewFetcher[uint64](log, notify, action.Query{
			Contract: contract.Donation,
			Method:   "getTotalRaised",
			ErrorMsg: "Error while fetching total raised. Try again…",
		}, nil),

		DonationByID: action.NewFetcher[Donation](log, notify, action.Query{
			Contract: contract.Donation,
			Method:   "getDonationAmountByUser",
			ErrorMsg: "Error while fetching donation. Try again…",
		}, nil),
	}

	return &p
}

// Mount loads the beneficiary, the donations and the total raised for the
// connection's donation contract.
func (p *Panel) Mount(ctx context.Context, conn session.Connection) error {
	var firstErr error
	for _, mount := range []func(context.Context, session.Connection) error{
		p.CurrentBeneficiary.Mount,
		p.Donations.Mount,
		p.TotalRaised.Mount,
	} {
		if err := mount(ctx, conn); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Donate sends the amount to the beneficiary. The amount field is cleared
// on success.
func (p *Panel) Donate(ctx context.Context, conn session.Connection, amount string) (action.Outcome, error) {
	return p.submit.Submit(ctx, conn, &p.DonateCtl, action.Call{
		Contract:   contract.Donation,
		Method:     "donate",
		Options:    contract.Options{Value: amount},
		Args:       []any{},
		SuccessMsg: fmt.Sprintf("Successfully donated %s", amount),
		ErrorMsg:   "Error while donating. Try again…",
		Reset:      []*action.Field{&p.Amount},
	})
}

// ChangeBeneficiary makes the account the new beneficiary. The beneficiary
// field is cleared on success.
func (p *Panel) ChangeBeneficiary(ctx context.Context, conn session.Connection, account string) (action.Outcome, error) {
	return p.submit.Submit(ctx, conn, &p.BeneficiaryCtl, action.Call{
		Contract:   contract.Donation,
		Method:     "changeBeneficiary",
		Args:       []any{account},
		SuccessMsg: fmt.Sprintf("Successfully changed beneficiary to %s", account),
		ErrorMsg:   "Error while changing beneficiary",
		Reset:      []*action.Field{&p.Beneficiary},
	})
}

// FetchDonation loads the donation with the specified id. Ids start at 1.
func (p *Panel) FetchDonation(ctx context.Context, conn session.Connection, id int32) (Donation, error) {
	return p.DonationByID.FetchArgs(ctx, conn, id)
}
