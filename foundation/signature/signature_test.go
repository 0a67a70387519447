package signature_test

import (
	"testing"

	"github.com/ardanlabs/ballot/foundation/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	from     = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	value := struct {
		Method string
	}{
		Method: "createProposal",
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	addr, err := signature.FromAddress(value, sig)
	if err != nil {
		t.Fatalf("Should be able to generate from address: %s", err)
	}

	if from != addr {
		t.Logf("got: %s", addr)
		t.Logf("exp: %s", from)
		t.Fatalf("Should get back the right address.")
	}

	if err := signature.Verify(value, sig, from); err != nil {
		t.Fatalf("Should be able to verify the signature: %s", err)
	}
}

func Test_Tampered(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	sig, err := signature.Sign(struct{ Value string }{Value: "5"}, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if err := signature.Verify(struct{ Value string }{Value: "500"}, sig, from); err == nil {
		t.Fatalf("Should not verify a signature for different data.")
	}

	if _, err := signature.FromAddress(struct{}{}, "0x1234"); err == nil {
		t.Fatalf("Should reject a short signature.")
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}
	hash := "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a"

	h := signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the right hash: %s", h[:6])
	}
}
