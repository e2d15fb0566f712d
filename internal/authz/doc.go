// Package authz gates program execution on cryptographic proof of intent.
//
// ARCHITECTURE:
//
// Two interchangeable policies implement the Policy interface:
//
// Direct: the caller signs the program's code hash with Ed25519 and
// presents the signature alongside the program. Verification binds the
// signature to this module's signing domain, so a signature produced for
// any other protocol never validates here.
//
// Commit-reveal: the caller first registers a blinded digest of
// (public key, code hash), then in a later call reveals the program. The
// ledger accepts the reveal only if a matching live commitment exists,
// has not expired, and has attempts remaining. Commitments are one-shot:
// a successful reveal consumes the commitment.
//
// Both policies fail closed. Any malformed input (bad hex, wrong key
// size, wrong signature size) is an authorization failure, not a parse
// failure.
package authz
