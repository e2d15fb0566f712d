// Package bytecode defines the fixed instruction set, the program
// container, its deterministic wire encoding, and content-addressed
// program identity.
//
// A program is an ordered instruction list plus a return projection. The
// wire encoding is the canonical serialization: one tag byte per
// instruction followed by length-prefixed operands, with all label strings
// NFC-normalized at the serialization boundary so visually identical
// programs hash identically.
//
// CodeHash is SHA-256 over the wire bytes with domain separation
// (domain + 0x00 + data). The hash is the binding key the authorization
// gate signs and commits against: two programs are the same program if and
// only if their code hashes match.
package bytecode
