package devchain

import (
	"encoding/json"
	"strconv"
)

// Names of the errors the donation contract reports.
const (
	ErrZeroDonation = "ZeroDonation"
)

// Donation records a single donation.
type Donation struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

// DonationContract collects donations and forwards them to the beneficiary.
type DonationContract struct {
	owner       string
	beneficiary string
	donations   []Donation
}

// NewDonation constructs the donation contract for the owner and
// initial beneficiary.
func NewDonation(owner string, beneficiary string) *DonationContract {
	return &DonationContract{
		owner:       owner,
		beneficiary: beneficiary,
	}
}

// Name implements the Contract interface.
func (d *DonationContract) Name() string {
	return "donation"
}

// Payable implements the Contract interface.
func (d *DonationContract) Payable(method string) bool {
	return method == "donate"
}

// Query implements the Contract interface.
func (d *DonationContract) Query(caller string, method string, args []json.RawMessage) (any, error) {
	switch method {
	case "getBeneficiary":
		return d.beneficiary, nil

	case "getDonations":
		donations := make([]Donation, len(d.donations))
		copy(donations, d.donations)
		return donations, nil

	case "getTotalRaised":
		var total uint64
		for _, dn := range d.donations {
			total += dn.Amount
		}
		return total, nil

	case "getDonationAmountByUser":
		var id int32
		if err := decodeArgs(args, &id); err != nil {
			return nil, err
		}

		// Donation ids start at 1.
		if id < 1 || int(id) > len(d.donations) {
			return Donation{Account: zeroAccount}, nil
		}
		return d.donations[id-1], nil
	}

	return nil, ErrUnknownMethod
}

// Execute implements the Contract interface.
func (d *DonationContract) Execute(env *Env, method string, args []json.RawMessage) error {
	switch method {
	case "donate":
		if err := decodeArgs(args); err != nil {
			return err
		}
		return d.donate(env)

	case "changeBeneficiary":
		var account string
		if err := decodeArgs(args, &account); err != nil {
			return err
		}
		return d.changeBeneficiary(env, account)
	}

	return ErrUnknownMethod
}

// =============================================================================

func (d *DonationContract) donate(env *Env) error {
	if env.Value == 0 {
		return contractErr(ErrZeroDonation)
	}

	if err := env.Transfer(d.beneficiary, env.Value); err != nil {
		return err
	}

	d.donations = append(d.donations, Donation{Account: env.Caller, Amount: env.Value})

	env.Emit("Donated", map[string]string{
		"id":      strconv.Itoa(len(d.donations)),
		"account": env.Caller,
		"amount":  strconv.FormatUint(env.Value, 10),
	})
	return nil
}

func (d *DonationContract) changeBeneficiary(env *Env, account string) error {
	if env.Caller != d.owner {
		return contractErr(ErrNotOwner)
	}

	account, err := toAccount(account)
	if err != nil {
		return err
	}

	d.beneficiary = account

	env.Emit("BeneficiaryChanged", map[string]string{"account": account})
	return nil
}
