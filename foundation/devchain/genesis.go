package devchain

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date        time.Time         `json:"date"`
	ChainID     uint16            `json:"chain_id"`
	Owner       string            `json:"owner"`       // Account that deploys and owns both contracts.
	Beneficiary string            `json:"beneficiary"` // Account receiving donations until changed.
	Balances    map[string]uint64 `json:"balances"`
}

// LoadGenesis opens and consumes the genesis file.
func LoadGenesis(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decode genesis: %w", err)
	}

	return genesis, nil
}
