// Package keystore reads a folder of private key files and exposes them as
// named accounts that can sign on behalf of the dashboard user.
package keystore

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ardanlabs/ballot/foundation/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Extension is the file extension of the private key files.
const Extension = ".ecdsa"

// ErrNotFound is returned when an account is not part of the keystore.
var ErrNotFound = errors.New("account not found")

// Key represents a named account and the private key that controls it.
type Key struct {
	name       string
	address    string
	privateKey *ecdsa.PrivateKey
}

// NewKey constructs a key from a private key.
func NewKey(name string, privateKey *ecdsa.PrivateKey) *Key {
	return &Key{
		name:       name,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey).String(),
		privateKey: privateKey,
	}
}

// Name returns the name of the account, taken from the file name.
func (k *Key) Name() string {
	return k.name
}

// Address returns the hex encoded account address.
func (k *Key) Address() string {
	return k.address
}

// Sign signs the value with the account's private key.
func (k *Key) Sign(value any) (string, error) {
	return signature.Sign(value, k.privateKey)
}

// =============================================================================

// Keystore maintains the set of accounts found in a folder.
type Keystore struct {
	keys []*Key
}

// New constructs a keystore with the keys found under the root folder.
func New(root string) (*Keystore, error) {
	var ks Keystore

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != Extension {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("load %s: %w", fileName, err)
		}

		name := strings.TrimSuffix(filepath.Base(fileName), Extension)
		ks.keys = append(ks.keys, NewKey(name, privateKey))

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(ks.keys, func(i, j int) bool {
		return ks.keys[i].name < ks.keys[j].name
	})

	return &ks, nil
}

// FromKeys constructs a keystore from keys already in memory.
func FromKeys(keys ...*Key) *Keystore {
	return &Keystore{keys: keys}
}

// Keys returns the accounts in name order.
func (ks *Keystore) Keys() []*Key {
	cpy := make([]*Key, len(ks.keys))
	copy(cpy, ks.keys)
	return cpy
}

// Find locates an account by name or by address.
func (ks *Keystore) Find(nameOrAddress string) (*Key, error) {
	for _, k := range ks.keys {
		if k.name == nameOrAddress || strings.EqualFold(k.address, nameOrAddress) {
			return k, nil
		}
	}

	return nil, ErrNotFound
}

// Lookup returns the name for the specified address or the address
// itself when it isn't known.
func (ks *Keystore) Lookup(address string) string {
	for _, k := range ks.keys {
		if strings.EqualFold(k.address, address) {
			return k.name
		}
	}

	return address
}

// Generate creates a new private key file for the named account.
func Generate(root string, name string) (*Key, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(root, name+Extension)
	if err := crypto.SaveECDSA(path, privateKey); err != nil {
		return nil, fmt.Errorf("save %s: %w", path, err)
	}

	return NewKey(name, privateKey), nil
}
