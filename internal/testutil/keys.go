package testutil

import (
	"crypto/ed25519"
	"encoding/hex"
)

// Keypair is a deterministic Ed25519 keypair for tests.
type Keypair struct {
	Priv    ed25519.PrivateKey
	PubHex  string
	SeedHex string
}

// KeyFromByte derives a keypair from a seed of 32 repeated bytes. The
// same byte always yields the same keypair, so fixtures and golden files
// stay stable.
func KeyFromByte(b byte) Keypair {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return Keypair{
		Priv:    priv,
		PubHex:  hex.EncodeToString(priv.Public().(ed25519.PublicKey)),
		SeedHex: hex.EncodeToString(seed),
	}
}
