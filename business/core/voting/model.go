package voting

// Set of votes that can be cast.
const (
	Aye = "Aye"
	Nye = "Nye"
)

// Proposal is a proposal as stored by the voting contract.
type Proposal struct {
	Name           string `json:"proposalName"`
	VoteAye        int32  `json:"voteAye"`
	VoteNye        int32  `json:"voteNye"`
	TotalVote      int32  `json:"totalVote"`
	Status         bool   `json:"proposalStatus"`
	VotingFinished bool   `json:"votingFinished"`
	ID             int32  `json:"id"`
}

// User is an account registered to vote.
type User struct {
	Name    string `json:"userName"`
	Account string `json:"userAccount"`
}

// VoteToggle returns the initial vote of a row. A proposal that already has
// aye votes starts on Aye.
func VoteToggle(yes bool) string {
	if yes {
		return Aye
	}
	return Nye
}
