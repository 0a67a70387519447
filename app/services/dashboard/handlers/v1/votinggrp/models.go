package votinggrp

import (
	"github.com/ardanlabs/ballot/business/core/voting"
)

// NewProposal contains the information needed to create a proposal.
type NewProposal struct {
	Name string `json:"name" validate:"required"`
}

// NewUser contains the information needed to register the connected
// account.
type NewUser struct {
	Name string `json:"name" validate:"required"`
}

// CastVote optionally changes the selected vote before it is cast.
type CastVote struct {
	Vote string `json:"vote" validate:"omitempty,oneof=Aye Nye"`
}

// AppRow is the state of a proposal's row controls.
type AppRow struct {
	ID            int32  `json:"id"`
	Vote          string `json:"vote"`
	Checked       bool   `json:"checked"`
	VoteLoading   bool   `json:"voteLoading"`
	RemoveLoading bool   `json:"removeLoading"`
	StatusLoading bool   `json:"statusLoading"`
}

func toAppRow(r *voting.Row) AppRow {
	return AppRow{
		ID:            r.ID,
		Vote:          r.Vote(),
		Checked:       r.Checked(),
		VoteLoading:   r.VoteCtl.Loading(),
		RemoveLoading: r.RemoveCtl.Loading(),
		StatusLoading: r.StatusCtl.Loading(),
	}
}

// AppProposal is a proposal with the state of its row controls.
type AppProposal struct {
	voting.Proposal
	Row AppRow `json:"row"`
}
