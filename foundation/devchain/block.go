package devchain

import (
	"github.com/ardanlabs/ballot/foundation/chain"
	"github.com/ardanlabs/ballot/foundation/signature"
)

// Receipt records the outcome of executing a call.
type Receipt struct {
	Hash    string        `json:"hash"`
	Success bool          `json:"success"`
	Events  []chain.Event `json:"events"`
}

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number    uint64 `json:"number"`
	PrevHash  string `json:"prev_hash"`
	TimeStamp uint64 `json:"timestamp"`
	CallsHash string `json:"calls_hash"`
}

// Block represents a group of calls batched together.
type Block struct {
	Header   BlockHeader        `json:"header"`
	Calls    []chain.SignedCall `json:"calls"`
	Receipts []Receipt          `json:"receipts"`
}

// Hash returns the unique hash for the block.
func (b Block) Hash() string {
	if b.Header.Number == 0 {
		return signature.ZeroHash
	}

	return signature.Hash(b.Header)
}
