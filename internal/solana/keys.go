package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ErrNotSigner is returned when a key is not among a transaction's required signers.
var ErrNotSigner = errors.New("key is not a required signer")

// ParsePublicKey decodes a base58 wallet address and checks that it is a
// point on the ed25519 curve. Program-derived addresses are rejected.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(b))
	}
	if !isOnCurve(b) {
		return nil, fmt.Errorf("public key %s is not on the ed25519 curve", s)
	}
	return ed25519.PublicKey(b), nil
}

// Keypair is the bot's key shard.
type Keypair struct {
	private ed25519.PrivateKey
}

// LoadKeypair parses a 64-byte secret key given either as a JSON byte
// array (solana-keygen file format) or as a base58 string.
func LoadKeypair(raw string) (*Keypair, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("keypair is empty")
	}

	var secret []byte
	if strings.HasPrefix(raw, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(raw), &ints); err != nil {
			return nil, fmt.Errorf("parse keypair json: %w", err)
		}
		secret = make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("keypair byte %d out of range: %d", i, v)
			}
			secret[i] = byte(v)
		}
	} else {
		b, err := base58.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("decode keypair: %w", err)
		}
		secret = b
	}

	if len(secret) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair must be %d bytes, got %d", ed25519.PrivateKeySize, len(secret))
	}

	priv := ed25519.NewKeyFromSeed(secret[:ed25519.SeedSize])
	if !priv.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(secret[ed25519.SeedSize:])) {
		return nil, fmt.Errorf("keypair public half does not match its seed")
	}
	return &Keypair{private: priv}, nil
}

// PublicKey returns the base58 address.
func (k *Keypair) PublicKey() string {
	return base58.Encode(k.private.Public().(ed25519.PublicKey))
}

// PartialSign adds this key's signature to a base64 wire transaction
// (legacy or v0) and returns the re-encoded transaction. Other signature
// slots are left untouched.
func (k *Keypair) PartialSign(txBase64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return "", fmt.Errorf("decode transaction: %w", err)
	}

	numSigs, n, err := decodeCompactU16(raw)
	if err != nil {
		return "", fmt.Errorf("signature count: %w", err)
	}
	sigStart := n
	msgStart := sigStart + numSigs*ed25519.SignatureSize
	if msgStart > len(raw) {
		return "", fmt.Errorf("transaction truncated in signatures")
	}
	message := raw[msgStart:]

	signers, err := requiredSigners(message)
	if err != nil {
		return "", err
	}
	if len(signers) != numSigs {
		return "", fmt.Errorf("transaction has %d signature slots for %d signers", numSigs, len(signers))
	}

	pub := k.private.Public().(ed25519.PublicKey)
	idx := -1
	for i, s := range signers {
		if pub.Equal(ed25519.PublicKey(s)) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", ErrNotSigner
	}

	sig := ed25519.Sign(k.private, message)
	out := append([]byte(nil), raw...)
	copy(out[sigStart+idx*ed25519.SignatureSize:], sig)
	return base64.StdEncoding.EncodeToString(out), nil
}

// requiredSigners returns the first numRequiredSignatures static account keys.
func requiredSigners(message []byte) ([][]byte, error) {
	if len(message) < 1 {
		return nil, fmt.Errorf("empty message")
	}

	// v0 messages carry a 0x80|version prefix before the header
	off := 0
	if message[0]&0x80 != 0 {
		if version := message[0] & 0x7f; version != 0 {
			return nil, fmt.Errorf("unsupported message version %d", version)
		}
		off = 1
	}
	if len(message) < off+3 {
		return nil, fmt.Errorf("message truncated in header")
	}
	numRequired := int(message[off])
	off += 3

	numKeys, n, err := decodeCompactU16(message[off:])
	if err != nil {
		return nil, fmt.Errorf("account key count: %w", err)
	}
	off += n
	if numRequired > numKeys {
		return nil, fmt.Errorf("header requires %d signers but message has %d keys", numRequired, numKeys)
	}
	if len(message) < off+numKeys*ed25519.PublicKeySize {
		return nil, fmt.Errorf("message truncated in account keys")
	}

	signers := make([][]byte, numRequired)
	for i := range signers {
		start := off + i*ed25519.PublicKeySize
		signers[i] = message[start : start+ed25519.PublicKeySize]
	}
	return signers, nil
}

// decodeCompactU16 reads Solana's shortvec length prefix.
func decodeCompactU16(b []byte) (value int, size int, err error) {
	for size < 3 {
		if size >= len(b) {
			return 0, 0, fmt.Errorf("compact-u16 truncated")
		}
		elem := int(b[size])
		value |= (elem & 0x7f) << (7 * size)
		size++
		if elem&0x80 == 0 {
			return value, size, nil
		}
	}
	return 0, 0, fmt.Errorf("compact-u16 overflow")
}

// encodeCompactU16 writes Solana's shortvec length prefix.
func encodeCompactU16(v int) []byte {
	var out []byte
	for {
		elem := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, elem)
		}
		out = append(out, elem|0x80)
	}
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
