// Package signature provides helper functions for signing contract calls
// and recovering the account that signed them.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// ballotID is added to the recovery id so signatures produced here can't be
// replayed as plain Ethereum signatures, which use 27.
const ballotID = 29

// =============================================================================

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// Sign uses the specified private key to sign the value. The signature is
// returned hex encoded in the [R|S|V] format with the ballot id applied.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Make sure the key we signed with can be recovered from the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, sig[:crypto.RecoveryIDOffset]) {
		return "", errors.New("invalid signature")
	}

	sig[crypto.RecoveryIDOffset] += ballotID

	return hexutil.Encode(sig), nil
}

// FromAddress extracts the address for the account that signed the value.
func FromAddress(value any, sigStr string) (string, error) {
	sig, err := toSignatureBytes(sigStr)
	if err != nil {
		return "", err
	}

	// The exact value that was signed must be provided or the wrong
	// public key gets extracted.
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// Verify checks the signature was produced for the value by the
// specified address.
func Verify(value any, sigStr string, address string) error {
	from, err := FromAddress(value, sigStr)
	if err != nil {
		return fmt.Errorf("recover signer: %w", err)
	}

	if from != address {
		return fmt.Errorf("signature belongs to %s, not %s", from, address)
	}

	return nil
}

// =============================================================================

// stamp returns a 32 byte hash of the value with the ballot stamp embedded.
func stamp(value any) ([]byte, error) {
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	txHash := crypto.Keccak256(v)
	stamp := []byte("\x19Ballot Signed Message:\n32")

	return crypto.Keccak256(stamp, txHash), nil
}

// toSignatureBytes decodes the hex signature and removes the ballot id
// from the recovery byte.
func toSignatureBytes(sigStr string) ([]byte, error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}

	if len(sig) != crypto.SignatureLength {
		return nil, errors.New("invalid signature length")
	}

	v := sig[crypto.RecoveryIDOffset] - ballotID
	if v != 0 && v != 1 {
		return nil, errors.New("invalid recovery id")
	}
	sig[crypto.RecoveryIDOffset] = v

	return sig, nil
}
