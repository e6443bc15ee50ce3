package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mr-tron/base58"
)

func testKey(seedByte byte) ed25519.PrivateKey {
	seed := bytes.Repeat([]byte{seedByte}, ed25519.SeedSize)
	return ed25519.NewKeyFromSeed(seed)
}

// buildTx assembles a wire transaction with empty signature slots.
func buildTx(versioned bool, signers []ed25519.PublicKey, extraKeys int) (tx []byte, message []byte) {
	var msg []byte
	if versioned {
		msg = append(msg, 0x80)
	}
	msg = append(msg, byte(len(signers)), 0, 1)
	msg = append(msg, encodeCompactU16(len(signers)+extraKeys)...)
	for _, s := range signers {
		msg = append(msg, s...)
	}
	for i := 0; i < extraKeys; i++ {
		msg = append(msg, bytes.Repeat([]byte{byte(0xA0 + i)}, 32)...)
	}
	msg = append(msg, bytes.Repeat([]byte{7}, 32)...) // blockhash
	msg = append(msg, 0)                              // no instructions

	tx = append(tx, encodeCompactU16(len(signers))...)
	tx = append(tx, make([]byte, len(signers)*ed25519.SignatureSize)...)
	tx = append(tx, msg...)
	return tx, msg
}

func TestLoadKeypair_Formats(t *testing.T) {
	priv := testKey(1)

	ints := make([]int, len(priv))
	for i, b := range priv {
		ints[i] = int(b)
	}
	asJSON, _ := json.Marshal(ints)

	for name, raw := range map[string]string{
		"json":   string(asJSON),
		"base58": base58.Encode(priv),
	} {
		kp, err := LoadKeypair(raw)
		if err != nil {
			t.Fatalf("%s: LoadKeypair: %v", name, err)
		}
		want := base58.Encode(priv.Public().(ed25519.PublicKey))
		if kp.PublicKey() != want {
			t.Errorf("%s: expected %s, got %s", name, want, kp.PublicKey())
		}
	}
}

func TestLoadKeypair_Invalid(t *testing.T) {
	priv := testKey(2)
	tampered := append([]byte(nil), priv...)
	tampered[40] ^= 0xff

	cases := map[string]string{
		"empty":      "",
		"short":      base58.Encode(priv[:32]),
		"mismatch":   base58.Encode(tampered),
		"bad json":   "[1,2,",
		"range":      "[256]",
		"bad base58": "0OIl",
	}
	for name, raw := range cases {
		if _, err := LoadKeypair(raw); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParsePublicKey(t *testing.T) {
	pub := testKey(3).Public().(ed25519.PublicKey)
	got, err := ParsePublicKey(base58.Encode(pub))
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if !got.Equal(pub) {
		t.Error("decoded key differs")
	}

	if _, err := ParsePublicKey("abc"); err == nil {
		t.Error("expected length error")
	}
}

func TestPartialSign(t *testing.T) {
	for _, versioned := range []bool{false, true} {
		user := testKey(4).Public().(ed25519.PublicKey)
		bot := testKey(5)
		botPub := bot.Public().(ed25519.PublicKey)

		tx, msg := buildTx(versioned, []ed25519.PublicKey{user, botPub}, 2)

		kp, err := LoadKeypair(base58.Encode(bot))
		if err != nil {
			t.Fatalf("LoadKeypair: %v", err)
		}

		signed, err := kp.PartialSign(base64.StdEncoding.EncodeToString(tx))
		if err != nil {
			t.Fatalf("versioned=%v: PartialSign: %v", versioned, err)
		}

		out, _ := base64.StdEncoding.DecodeString(signed)
		if len(out) != len(tx) {
			t.Fatalf("length changed: %d -> %d", len(tx), len(out))
		}

		slot0 := out[1 : 1+64]
		slot1 := out[1+64 : 1+128]
		if !bytes.Equal(slot0, make([]byte, 64)) {
			t.Error("user slot must stay empty")
		}
		if !ed25519.Verify(botPub, msg, slot1) {
			t.Errorf("versioned=%v: bot signature does not verify", versioned)
		}
		if !bytes.Equal(out[1+128:], msg) {
			t.Error("message bytes changed")
		}
	}
}

func TestPartialSign_NotSigner(t *testing.T) {
	user := testKey(6).Public().(ed25519.PublicKey)
	tx, _ := buildTx(true, []ed25519.PublicKey{user}, 1)

	kp, err := LoadKeypair(base58.Encode(testKey(7)))
	if err != nil {
		t.Fatalf("LoadKeypair: %v", err)
	}

	_, err = kp.PartialSign(base64.StdEncoding.EncodeToString(tx))
	if !errors.Is(err, ErrNotSigner) {
		t.Fatalf("expected ErrNotSigner, got %v", err)
	}
}

func TestPartialSign_Malformed(t *testing.T) {
	kp, _ := LoadKeypair(base58.Encode(testKey(8)))

	for name, payload := range map[string]string{
		"not base64": "%%%",
		"truncated":  base64.StdEncoding.EncodeToString([]byte{2, 1, 2, 3}),
		"empty msg":  base64.StdEncoding.EncodeToString([]byte{0}),
	} {
		if _, err := kp.PartialSign(payload); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestCompactU16(t *testing.T) {
	for _, v := range []int{0, 1, 127, 128, 255, 16383, 16384, 65535} {
		enc := encodeCompactU16(v)
		got, n, err := decodeCompactU16(enc)
		if err != nil {
			t.Fatalf("decode %d: %v", v, err)
		}
		if got != v || n != len(enc) {
			t.Errorf("round trip %d: got %d (%d bytes of %d)", v, got, n, len(enc))
		}
	}
}
