package concrnt

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/cosmos/cosmos-sdk/codec/address"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

const (
	// EntityHRP is the bech32 prefix of an entity address (ccid).
	EntityHRP = "con"

	entropySize = 32
)

// Identity is a freshly generated actor keypair and its derived address.
type Identity struct {
	Address string
	PrivKey string
}

// GenerateIdentity creates a new secp256k1 identity using entropy read from r.
// A nil reader falls back to crypto/rand.
func GenerateIdentity(r io.Reader) (Identity, error) {
	if r == nil {
		r = rand.Reader
	}

	secret := make([]byte, entropySize)
	if _, err := io.ReadFull(r, secret); err != nil {
		return Identity{}, errors.Wrap(err, "failed to read entropy")
	}

	privkey := secp256k1.GenPrivKeyFromSecret(secret)
	addr, err := pubKeyToAddr(privkey.PubKey().Address(), EntityHRP)
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		Address: addr,
		PrivKey: hex.EncodeToString(privkey.Bytes()),
	}, nil
}

// PrivKeyToAddr derives the bech32 address of a hex encoded private key.
func PrivKeyToAddr(privkey string, hrp string) (string, error) {
	keyBytes, err := hex.DecodeString(privkey)
	if err != nil {
		return "", errors.Wrap(err, "invalid private key encoding")
	}
	if len(keyBytes) != secp256k1.PrivKeySize {
		return "", errors.Errorf("invalid private key length: %d", len(keyBytes))
	}

	key := &secp256k1.PrivKey{Key: keyBytes}
	return pubKeyToAddr(key.PubKey().Address(), hrp)
}

func pubKeyToAddr(raw []byte, hrp string) (string, error) {
	cdc := address.NewBech32Codec(hrp)
	addr, err := cdc.BytesToString(sdk.AccAddress(raw))
	if err != nil {
		return "", errors.Wrap(err, "failed to encode address")
	}
	return addr, nil
}

func keccak(msg []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(msg)
	return hash.Sum(nil)
}

// SignBytes signs keccak256(msg) with the hex encoded private key.
func SignBytes(msg []byte, privkey string) ([]byte, error) {
	key, err := crypto.HexToECDSA(privkey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}

	signature, err := crypto.Sign(keccak(msg), key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign")
	}

	return signature, nil
}

// Sign returns the hex encoded signature of msg.
func Sign(privkey string, msg string) (string, error) {
	signature, err := SignBytes([]byte(msg), privkey)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(signature), nil
}

// VerifySignature checks that signature over msg was produced by the key behind address.
func VerifySignature(msg []byte, signature []byte, addr string) error {
	pubkey, err := crypto.SigToPub(keccak(msg), signature)
	if err != nil {
		return errors.Wrap(err, "failed to recover public key")
	}

	recovered := &secp256k1.PubKey{Key: crypto.CompressPubkey(pubkey)}

	cdc := address.NewBech32Codec(hrpOf(addr))
	expected, err := cdc.StringToBytes(addr)
	if err != nil {
		return errors.Wrap(err, "invalid address")
	}

	if !bytes.Equal(recovered.Address(), expected) {
		return errors.New("signature does not match signer")
	}

	return nil
}

func hrpOf(addr string) string {
	if len(addr) < 3 {
		return EntityHRP
	}
	return addr[:3]
}
