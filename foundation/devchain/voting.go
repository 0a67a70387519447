package devchain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Names of the errors the voting contract reports.
const (
	ErrNotOwner              = "NotOwner"
	ErrAccountNotRegistered  = "AccountNotRegistered"
	ErrProposalStatusError   = "ProposalStatusError"
	ErrAlreadyVoted          = "AlreadyVoted"
	ErrShortNameLen          = "ShortNameLen"
	ErrProposalLimit         = "ReachActiveProposalLimit"
	ErrStatusNotAgreed       = "StatusNotAgreed"
	ErrVotingFinishedAlready = "VotingFinishedAlready"
	ErrProposalNotExists     = "ProposalNotExists"
	ErrInvalidVote           = "InvalidVote"
)

// minUserNameLen is the shortest user name that can register.
const minUserNameLen = 3

// Proposal is the state the voting contract keeps for a proposal.
type Proposal struct {
	Name           string `json:"proposalName"`
	VoteAye        int32  `json:"voteAye"`
	VoteNye        int32  `json:"voteNye"`
	TotalVote      int32  `json:"totalVote"`
	Status         bool   `json:"proposalStatus"`
	VotingFinished bool   `json:"votingFinished"`
	ID             int32  `json:"id"`
}

// User is a registered voter.
type User struct {
	Name    string `json:"userName"`
	Account string `json:"userAccount"`
}

type votedKey struct {
	account string
	id      int32
}

// Voting implements the voting contract. Only the owner manages proposals,
// any account can register and registered accounts vote once per proposal.
type Voting struct {
	owner          string
	nextProposalID int32
	nextUserID     int32
	activeProposal int32
	proposals      map[int32]Proposal
	users          map[int32]User
	voted          map[votedKey]bool
}

// NewVoting constructs the voting contract for the owner.
func NewVoting(owner string) *Voting {
	return &Voting{
		owner:          owner,
		activeProposal: 1,
		proposals:      make(map[int32]Proposal),
		users:          make(map[int32]User),
		voted:          make(map[votedKey]bool),
	}
}

// Name implements the Contract interface.
func (v *Voting) Name() string {
	return "voting"
}

// Payable implements the Contract interface.
func (v *Voting) Payable(method string) bool {
	return false
}

// Query implements the Contract interface.
func (v *Voting) Query(caller string, method string, args []json.RawMessage) (any, error) {
	switch method {
	case "getAllProposal":
		return v.allProposals(func(Proposal) bool { return true }), nil

	case "getActiveProposal":
		return v.allProposals(func(p Proposal) bool { return p.Status }), nil

	case "getAllUsers":
		return v.allUsers(), nil

	case "getAccountId":
		return v.owner, nil
	}

	return nil, ErrUnknownMethod
}

// Execute implements the Contract interface.
func (v *Voting) Execute(env *Env, method string, args []json.RawMessage) error {
	switch method {
	case "createProposal":
		var name string
		if err := decodeArgs(args, &name); err != nil {
			return err
		}
		return v.createProposal(env, name)

	case "changeProposalStatus":
		var id int32
		if err := decodeArgs(args, &id); err != nil {
			return err
		}
		return v.changeProposalStatus(env, id)

	case "removeActiveProposal":
		var id int32
		if err := decodeArgs(args, &id); err != nil {
			return err
		}
		return v.removeActiveProposal(env, id)

	case "registerUser":
		var account, name string
		if err := decodeArgs(args, &account, &name); err != nil {
			return err
		}
		return v.registerUser(env, account, name)

	case "voteProposal":
		var vote string
		var id int32
		if err := decodeArgs(args, &vote, &id); err != nil {
			return err
		}
		return v.voteProposal(env, vote, id)
	}

	return ErrUnknownMethod
}

// =============================================================================

func (v *Voting) createProposal(env *Env, name string) error {
	if env.Caller != v.owner {
		return contractErr(ErrNotOwner)
	}

	p := Proposal{
		Name: name,
		ID:   v.nextProposalID,
	}
	v.proposals[p.ID] = p
	v.nextProposalID++

	env.Emit("ProposalCreated", map[string]string{"id": strconv.Itoa(int(p.ID)), "name": name})
	return nil
}

func (v *Voting) changeProposalStatus(env *Env, id int32) error {
	if env.Caller != v.owner {
		return contractErr(ErrNotOwner)
	}

	// Only one proposal can be open for voting at a time.
	if v.activeProposal > 1 {
		return contractErr(ErrProposalLimit)
	}

	p, exists := v.proposals[id]
	if !exists {
		return contractErr(ErrProposalNotExists)
	}

	if p.VotingFinished {
		return contractErr(ErrVotingFinishedAlready)
	}

	v.proposals[id] = Proposal{
		Name:   p.Name,
		Status: true,
		ID:     p.ID,
	}
	v.activeProposal++

	env.Emit("ProposalStatusChanged", map[string]string{"id": strconv.Itoa(int(id))})
	return nil
}

func (v *Voting) removeActiveProposal(env *Env, id int32) error {
	if env.Caller != v.owner {
		return contractErr(ErrNotOwner)
	}

	if p, exists := v.proposals[id]; exists {
		if !p.Status {
			return contractErr(ErrStatusNotAgreed)
		}
		if p.VotingFinished {
			return contractErr(ErrVotingFinishedAlready)
		}

		p.VotingFinished = true
		v.proposals[id] = p
	}

	v.activeProposal = 1
	return nil
}

func (v *Voting) registerUser(env *Env, account string, name string) error {
	if len(name) < minUserNameLen {
		return contractErr(ErrShortNameLen)
	}

	account, err := toAccount(account)
	if err != nil {
		return err
	}

	v.users[v.nextUserID] = User{Name: name, Account: account}
	v.nextUserID++

	env.Emit("UserCreated", map[string]string{"account": account, "name": name})
	return nil
}

func (v *Voting) voteProposal(env *Env, vote string, id int32) error {
	if vote != "Aye" && vote != "Nye" {
		return contractErr(ErrInvalidVote)
	}

	// A missing proposal behaves like a closed one.
	p := v.proposals[id]

	if !p.Status {
		return contractErr(ErrProposalStatusError)
	}

	if p.VotingFinished {
		return contractErr(ErrVotingFinishedAlready)
	}

	if !v.isRegistered(env.Caller) {
		return contractErr(ErrAccountNotRegistered)
	}

	key := votedKey{account: env.Caller, id: id}
	if v.voted[key] {
		return contractErr(ErrAlreadyVoted)
	}

	switch vote {
	case "Aye":
		p.VoteAye++
	default:
		p.VoteNye++
	}
	p.TotalVote++

	v.proposals[id] = p
	v.voted[key] = true

	env.Emit("ProposalVoted", map[string]string{"id": fmt.Sprint(id), "vote": vote})
	return nil
}

// =============================================================================

func (v *Voting) isRegistered(account string) bool {
	for _, u := range v.users {
		if u.Account == account {
			return true
		}
	}
	return false
}

func (v *Voting) allProposals(keep func(Proposal) bool) []Proposal {
	props := make([]Proposal, 0, len(v.proposals))
	for _, p := range v.proposals {
		if keep(p) {
			props = append(props, p)
		}
	}

	sort.Slice(props, func(i, j int) bool {
		return props[i].ID < props[j].ID
	})

	return props
}

func (v *Voting) allUsers() []User {
	ids := make([]int32, 0, len(v.users))
	for id := range v.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	users := make([]User, len(ids))
	for i, id := range ids {
		users[i] = v.users[id]
	}

	return users
}
