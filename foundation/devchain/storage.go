package devchain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Storage represents the behavior required to journal blocks.
type Storage interface {
	Write(block Block) error
	ReadAll() ([]Block, error)
	Close() error
}

// =============================================================================

// Disk stores every block in its own JSON file named after the block number.
type Disk struct {
	dbPath string
}

// NewDisk constructs a disk storage rooted at the specified folder.
func NewDisk(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write stores the block on disk in a human readable format.
func (d *Disk) Write(block Block) error {
	data, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(d.getPath(block.Header.Number), data, 0600)
}

// ReadAll reads the blocks in order until the first missing number.
func (d *Disk) ReadAll() ([]Block, error) {
	var blocks []Block
	for num := uint64(1); ; num++ {
		data, err := os.ReadFile(d.getPath(num))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return blocks, nil
			}
			return nil, err
		}

		var block Block
		if err := json.Unmarshal(data, &block); err != nil {
			return nil, fmt.Errorf("decode block %d: %w", num, err)
		}
		blocks = append(blocks, block)
	}
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(blockNum uint64) string {
	name := strconv.FormatUint(blockNum, 10)
	return filepath.Join(d.dbPath, name+".json")
}

// =============================================================================

// Memory keeps the blocks in memory. Used for tests and throw away nodes.
type Memory struct {
	mu     sync.Mutex
	blocks []Block
}

// NewMemory constructs a memory storage.
func NewMemory() *Memory {
	return &Memory{}
}

// Close implements the Storage interface.
func (m *Memory) Close() error {
	return nil
}

// Write implements the Storage interface.
func (m *Memory) Write(block Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = append(m.blocks, block)
	return nil
}

// ReadAll implements the Storage interface.
func (m *Memory) ReadAll() ([]Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blocks := make([]Block, len(m.blocks))
	copy(blocks, m.blocks)
	return blocks, nil
}
