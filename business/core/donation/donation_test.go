package donation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ardanlabs/ballot/business/core/action"
	"github.com/ardanlabs/ballot/business/core/contract"
	"github.com/ardanlabs/ballot/business/core/contract/contracttest"
	"github.com/ardanlabs/ballot/business/core/donation"
	"github.com/ardanlabs/ballot/business/core/notify"
	"github.com/ardanlabs/ballot/business/core/session"
	"github.com/ardanlabs/ballot/foundation/chain"
	"github.com/ardanlabs/ballot/foundation/keystore"
	"github.com/ardanlabs/ballot/foundation/logger"
)

const (
	success = contracttest.Success
	failed  = contracttest.Failed
)

func connect(t *testing.T, test *contracttest.Test, key *keystore.Key) session.Connection {
	t.Helper()

	reg, err := contract.Resolve(context.Background(), test.Client)
	if err != nil {
		t.Fatalf("resolving contracts: %s", err)
	}

	return session.Connection{
		Account:   session.Account{Name: key.Name(), Address: key.Address()},
		Signer:    key,
		Client:    test.Client,
		Contracts: reg,
		Connected: true,
	}
}

func Test_Donate(t *testing.T) {
	t.Log("Given the need to donate to the beneficiary.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen alice donates 5.", testID)
		{
			ctx := context.Background()
			test := contracttest.New(t)
			alice := connect(t, test, test.Alice)

			var rec notify.Recorder
			panel := donation.NewPanel(logger.NewNop(), &rec)

			panel.Amount.Set("5")
			if _, err := panel.Donate(ctx, alice, panel.Amount.Value()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to donate: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to donate.", success, testID)

			calls := test.Client.Calls()
			if len(calls) != 1 || calls[0].Value != "5" || len(calls[0].Args) != 0 || calls[0].Method != "donate" {
				t.Fatalf("\t%s\tTest %d:\tShould make one call with value 5 and no args: %+v", failed, testID, calls)
			}
			t.Logf("\t%s\tTest %d:\tShould make one call with value 5 and no args.", success, testID)

			toasts := rec.Toasts()
			if len(toasts) != 1 || toasts[0].Level != notify.LevelSuccess || !strings.Contains(toasts[0].Message, "5") {
				t.Fatalf("\t%s\tTest %d:\tShould show a success toast with the amount: %+v", failed, testID, toasts)
			}
			t.Logf("\t%s\tTest %d:\tShould show a success toast with the amount.", success, testID)

			if panel.Amount.Value() != "" {
				t.Fatalf("\t%s\tTest %d:\tShould clear the amount.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould clear the amount.", success, testID)

			if err := panel.Mount(ctx, alice); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mount: %v", failed, testID, err)
			}

			if panel.TotalRaised.Value() != 5 || len(panel.Donations.Value()) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould show the donation: %d %+v", failed, testID, panel.TotalRaised.Value(), panel.Donations.Value())
			}
			t.Logf("\t%s\tTest %d:\tShould show the donation.", success, testID)

			d, err := panel.FetchDonation(ctx, alice, 1)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to fetch donation 1: %v", failed, testID, err)
			}
			if d.Account != test.Alice.Address() || d.Amount != 5 {
				t.Fatalf("\t%s\tTest %d:\tShould get alice's donation: %+v", failed, testID, d)
			}
			t.Logf("\t%s\tTest %d:\tShould get alice's donation.", success, testID)

			if bal := test.Chain.Balance(test.Beneficiary.Address()); bal != 5 {
				t.Fatalf("\t%s\tTest %d:\tShould credit the beneficiary: %d", failed, testID, bal)
			}
			t.Logf("\t%s\tTest %d:\tShould credit the beneficiary.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen alice donates more than she has.", testID)
		{
			test := contracttest.New(t)
			alice := connect(t, test, test.Alice)

			var rec notify.Recorder
			panel := donation.NewPanel(logger.NewNop(), &rec)

			panel.Amount.Set("500")
			if _, err := panel.Donate(context.Background(), alice, panel.Amount.Value()); !errors.Is(err, action.ErrCallFailed) {
				t.Fatalf("\t%s\tTest %d:\tShould fail: %v", failed, testID, err)
			}

			toasts := rec.Toasts()
			if len(toasts) != 1 || toasts[0].Message != "Error while donating. Try again…" || panel.Amount.Value() != "500" {
				t.Fatalf("\t%s\tTest %d:\tShould show the error toast and keep the amount: %+v", failed, testID, toasts)
			}
			t.Logf("\t%s\tTest %d:\tShould show the error toast and keep the amount.", success, testID)
		}
	}
}

func Test_ChangeBeneficiary(t *testing.T) {
	t.Log("Given the need to change the beneficiary.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the owner and alice try.", testID)
		{
			ctx := context.Background()
			test := contracttest.New(t)
			owner := connect(t, test, test.Owner)
			alice := connect(t, test, test.Alice)

			var rec notify.Recorder
			panel := donation.NewPanel(logger.NewNop(), &rec)

			panel.Beneficiary.Set(test.Alice.Address())
			if _, err := panel.ChangeBeneficiary(ctx, alice, panel.Beneficiary.Value()); !errors.Is(err, action.ErrCallFailed) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse alice: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse alice.", success, testID)

			panel.Beneficiary.Set(test.Bob.Address())
			if _, err := panel.ChangeBeneficiary(ctx, owner, panel.Beneficiary.Value()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the owner: %v", failed, testID, err)
			}

			last := rec.Toasts()[len(rec.Toasts())-1]
			if last.Message != "Successfully changed beneficiary to "+test.Bob.Address() || panel.Beneficiary.Value() != "" {
				t.Fatalf("\t%s\tTest %d:\tShould confirm and clear the form: %+v", failed, testID, last)
			}
			t.Logf("\t%s\tTest %d:\tShould confirm and clear the form.", success, testID)

			if err := panel.CurrentBeneficiary.Fetch(ctx, owner); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to fetch the beneficiary: %v", failed, testID, err)
			}
			if panel.CurrentBeneficiary.Value() != test.Bob.Address() {
				t.Fatalf("\t%s\tTest %d:\tShould show bob: %s", failed, testID, panel.CurrentBeneficiary.Value())
			}
			t.Logf("\t%s\tTest %d:\tShould show bob.", success, testID)
		}
	}
}

func Test_ConcurrentDonations(t *testing.T) {
	t.Log("Given the need to keep concurrent donations apart.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a second amount is entered while a donation is on the wire.", testID)
		{
			ctx := context.Background()
			test := contracttest.New(t)
			alice := connect(t, test, test.Alice)

			var rec notify.Recorder
			panel := donation.NewPanel(logger.NewNop(), &rec)

			var secondErr error
			test.Client.OnSubmit = func(sc chain.SignedCall) {
				test.Client.OnSubmit = nil

				panel.Amount.Set("1000")
				_, secondErr = panel.Donate(ctx, alice, panel.Amount.Value())
			}

			panel.Amount.Set("5")
			if _, err := panel.Donate(ctx, alice, panel.Amount.Value()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to donate 5: %v", failed, testID, err)
			}

			if !errors.Is(secondErr, action.ErrBusy) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the second donation as busy: %v", failed, testID, secondErr)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the second donation as busy.", success, testID)

			calls := test.Client.Calls()
			if len(calls) != 1 || calls[0].Value != "5" {
				t.Fatalf("\t%s\tTest %d:\tShould send only the amount entered first: %+v", failed, testID, calls)
			}
			t.Logf("\t%s\tTest %d:\tShould send only the amount entered first.", success, testID)

			if bal := test.Chain.Balance(test.Beneficiary.Address()); bal != 5 {
				t.Fatalf("\t%s\tTest %d:\tShould credit the beneficiary with 5: %d", failed, testID, bal)
			}
			t.Logf("\t%s\tTest %d:\tShould credit the beneficiary with 5.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen donations are looked up by id concurrently.", testID)
		{
			ctx := context.Background()
			test := contracttest.New(t)
			alice := connect(t, test, test.Alice)
			owner := connect(t, test, test.Owner)

			var rec notify.Recorder
			panel := donation.NewPanel(logger.NewNop(), &rec)

			if _, err := panel.Donate(ctx, alice, "5"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to donate 5: %v", failed, testID, err)
			}
			if _, err := panel.Donate(ctx, owner, "7"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to donate 7: %v", failed, testID, err)
			}

			want := map[int32]uint64{1: 5, 2: 7}

			const lookups = 40
			errs := make(chan error, lookups)

			var wg sync.WaitGroup
			wg.Add(lookups)
			for i := range lookups {
				id := int32(i%2 + 1)
				go func() {
					defer wg.Done()

					d, err := panel.FetchDonation(ctx, alice, id)
					if err != nil {
						errs <- err
						return
					}
					if d.Amount != want[id] {
						errs <- fmt.Errorf("donation %d: got amount %d, want %d", id, d.Amount, want[id])
					}
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				t.Fatalf("\t%s\tTest %d:\tShould get the donation asked for: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get the donation asked for.", success, testID)
		}
	}
}
