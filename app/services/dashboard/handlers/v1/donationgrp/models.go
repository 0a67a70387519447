package donationgrp

// Donate contains the amount to donate.
type Donate struct {
	Amount string `json:"amount" validate:"required,numeric"`
}

// ChangeBeneficiary contains the account of the new beneficiary.
type ChangeBeneficiary struct {
	Account string `json:"account" validate:"required,account"`
}

// AppBeneficiary is the current beneficiary.
type AppBeneficiary struct {
	Account string `json:"account"`
}

// AppTotal is the total raised so far.
type AppTotal struct {
	Total uint64 `json:"total"`
}
