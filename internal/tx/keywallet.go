package tx

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
)

var oidSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}

// sec1Key is the RFC 5915 EC private key structure of "EC PRIVATE KEY" PEM
// files.
type sec1Key struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
	PublicKey     asn1.BitString        `asn1:"optional,explicit,tag:1"`
}

// KeyWallet signs with a local secret key file: ed25519 ("PRIVATE KEY",
// PKCS#8) or secp256k1 ("EC PRIVATE KEY", SEC 1). It never prompts.
type KeyWallet struct {
	publicKey string
	sign      func(hash []byte) ([]byte, error)
}

// LoadKeyWallet reads a secret key PEM file.
func LoadKeyWallet(path string) (*KeyWallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secret key: %w", err)
	}
	return ParseKeyWallet(data)
}

func ParseKeyWallet(pemBytes []byte) (*KeyWallet, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("secret key: no PEM block")
	}
	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("secret key: %w", err)
		}
		priv, ok := key.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("secret key: unsupported PKCS#8 key %T", key)
		}
		pub := priv.Public().(ed25519.PublicKey)
		return &KeyWallet{
			publicKey: "01" + hex.EncodeToString(pub),
			sign: func(hash []byte) ([]byte, error) {
				return ed25519.Sign(priv, hash), nil
			},
		}, nil
	case "EC PRIVATE KEY":
		var raw sec1Key
		if _, err := asn1.Unmarshal(block.Bytes, &raw); err != nil {
			return nil, fmt.Errorf("secret key: %w", err)
		}
		if len(raw.NamedCurveOID) > 0 && !raw.NamedCurveOID.Equal(oidSecp256k1) {
			return nil, fmt.Errorf("secret key: unsupported curve %s", raw.NamedCurveOID)
		}
		priv, err := crypto.ToECDSA(raw.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("secret key: %w", err)
		}
		return &KeyWallet{
			publicKey: "02" + hex.EncodeToString(crypto.CompressPubkey(&priv.PublicKey)),
			sign: func(hash []byte) ([]byte, error) {
				return signSecp256k1(priv, hash)
			},
		}, nil
	}
	return nil, fmt.Errorf("secret key: unsupported PEM type %q", block.Type)
}

// signSecp256k1 signs sha256(hash) and returns the 64-byte r||s form.
func signSecp256k1(priv *ecdsa.PrivateKey, hash []byte) ([]byte, error) {
	digest := sha256.Sum256(hash)
	sig, err := crypto.Sign(digest[:], priv)
	if err != nil {
		return nil, err
	}
	return sig[:64], nil
}

func (w *KeyWallet) RequestConnection(ctx context.Context) (bool, error) { return true, nil }

func (w *KeyWallet) ActivePublicKey(ctx context.Context) (string, error) { return w.publicKey, nil }

func (w *KeyWallet) Sign(ctx context.Context, t Transaction, publicKeyHex string) (SignResult, error) {
	if publicKeyHex != w.publicKey {
		return SignResult{}, fmt.Errorf("%w: key %s is not loaded", ErrNoPublicKey, publicKeyHex)
	}
	hash, err := t.HashBytes()
	if err != nil {
		return SignResult{}, err
	}
	sig, err := w.sign(hash)
	if err != nil {
		return SignResult{}, err
	}
	return SignResult{Signature: sig}, nil
}
