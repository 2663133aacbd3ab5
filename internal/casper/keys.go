package casper

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	AccountHashPrefix = "account-hash-"
	HashPrefix        = "hash-"
	ContractPrefix    = "contract-"
	PackagePrefix     = "contract-package-"

	algoEd25519   = "ed25519"
	algoSecp256k1 = "secp256k1"

	tagEd25519   = "01"
	tagSecp256k1 = "02"

	ed25519KeyLen   = 32
	secp256k1KeyLen = 33
)

// ErrInvalidKey is returned for malformed public keys or hashes.
var ErrInvalidKey = errors.New("invalid key")

// AccountHashFromPublicKey derives the account hash of a hex public key
// carrying its algorithm tag (01 ed25519, 02 secp256k1). The result is
// blake2b-256(algorithm name || 0x00 || raw key).
func AccountHashFromPublicKey(pubKeyHex string) (string, error) {
	pubKeyHex = strings.ToLower(strings.TrimSpace(pubKeyHex))
	if len(pubKeyHex) < 2 {
		return "", fmt.Errorf("%w: public key %q", ErrInvalidKey, pubKeyHex)
	}
	raw, err := hex.DecodeString(pubKeyHex[2:])
	if err != nil {
		return "", fmt.Errorf("%w: public key %q: %v", ErrInvalidKey, pubKeyHex, err)
	}

	var algo string
	switch pubKeyHex[:2] {
	case tagEd25519:
		algo = algoEd25519
		if len(raw) != ed25519KeyLen {
			return "", fmt.Errorf("%w: ed25519 key length %d", ErrInvalidKey, len(raw))
		}
	case tagSecp256k1:
		algo = algoSecp256k1
		if len(raw) != secp256k1KeyLen {
			return "", fmt.Errorf("%w: secp256k1 key length %d", ErrInvalidKey, len(raw))
		}
	default:
		return "", fmt.Errorf("%w: unknown algorithm tag %q", ErrInvalidKey, pubKeyHex[:2])
	}

	preimage := make([]byte, 0, len(algo)+1+len(raw))
	preimage = append(preimage, algo...)
	preimage = append(preimage, 0)
	preimage = append(preimage, raw...)
	sum := blake2b.Sum256(preimage)
	return AccountHashPrefix + hex.EncodeToString(sum[:]), nil
}

// NormalizeAccount accepts either a public key or an account hash and
// returns the prefixed account hash.
func NormalizeAccount(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, AccountHashPrefix) {
		if _, err := decodeHash(strings.TrimPrefix(s, AccountHashPrefix)); err != nil {
			return "", err
		}
		return s, nil
	}
	return AccountHashFromPublicKey(s)
}

// AccountKeyBytes is the storage mapping key for an account address:
// tag 0 followed by the 32-byte account hash.
func AccountKeyBytes(accountHash string) ([]byte, error) {
	h, err := decodeHash(strings.TrimPrefix(accountHash, AccountHashPrefix))
	if err != nil {
		return nil, err
	}
	return append([]byte{0}, h...), nil
}

// DictionaryItemKey derives the storage dictionary item key for a contract
// field and optional mapping key: hex(blake2b-256(BE u32 index || key)).
func DictionaryItemKey(fieldIndex uint32, mappingKey []byte) string {
	preimage := make([]byte, 4, 4+len(mappingKey))
	binary.BigEndian.PutUint32(preimage, fieldIndex)
	preimage = append(preimage, mappingKey...)
	sum := blake2b.Sum256(preimage)
	return hex.EncodeToString(sum[:])
}

// ContractKey renders a contract hash as a global state key ("hash-…"),
// accepting bare hex or any of the usual prefixes.
func ContractKey(contractHash string) string {
	h := strings.ToLower(strings.TrimSpace(contractHash))
	for _, p := range []string{PackagePrefix, ContractPrefix, HashPrefix} {
		h = strings.TrimPrefix(h, p)
	}
	return HashPrefix + h
}

// SignatureTag returns the algorithm byte prepended to raw signatures.
func SignatureTag(pubKeyHex string) byte {
	if strings.HasPrefix(strings.ToLower(pubKeyHex), tagEd25519) {
		return 0x01
	}
	return 0x02
}

// TagSignature prefixes a raw signature with its algorithm byte.
func TagSignature(pubKeyHex string, sig []byte) []byte {
	out := make([]byte, 0, len(sig)+1)
	out = append(out, SignatureTag(pubKeyHex))
	return append(out, sig...)
}

func decodeHash(h string) ([]byte, error) {
	b, err := hex.DecodeString(h)
	if err != nil || len(b) != 32 {
		return nil, fmt.Errorf("%w: hash %q", ErrInvalidKey, h)
	}
	return b, nil
}
