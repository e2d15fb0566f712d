package authz

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/roach88/cypherlite/internal/bytecode"
	"github.com/roach88/cypherlite/internal/errcode"
)

// Signing domains. The null separator prevents boundary ambiguity between
// domain and payload.
const (
	DomainAuth   = "cypherlite/auth/v1"
	DomainCommit = "cypherlite/commit/v1"
)

// Commit-reveal defaults.
const (
	DefaultRevealWindow = 10 * time.Minute
	DefaultMaxAttempts  = 3
)

// Request carries everything a policy needs to decide on one program.
type Request struct {
	// PubKeyHex is the hex-encoded Ed25519 public key of the caller.
	PubKeyHex string

	// CodeHash is the content address of the program being authorized.
	CodeHash bytecode.Hash

	// Signature is the Ed25519 signature over SigningPayload(CodeHash).
	// Unused by the commit-reveal policy.
	Signature []byte

	// CommitDigest names the prior commitment a reveal claims to satisfy.
	// Unused by the direct policy.
	CommitDigest string
}

// Policy decides whether a program may execute. Implementations fail
// closed: any error means the program must not run.
type Policy interface {
	Authorize(req Request) error
}

// SigningPayload is the exact byte sequence a caller signs for the direct
// policy: domain, null separator, then the hex code hash bytes.
func SigningPayload(codeHash bytecode.Hash) []byte {
	payload := make([]byte, 0, len(DomainAuth)+1+len(codeHash))
	payload = append(payload, DomainAuth...)
	payload = append(payload, 0x00)
	payload = append(payload, codeHash...)
	return payload
}

// Sign produces a direct-policy signature for the given program hash.
func Sign(priv ed25519.PrivateKey, codeHash bytecode.Hash) []byte {
	return ed25519.Sign(priv, SigningPayload(codeHash))
}

// Direct verifies an Ed25519 signature over the code hash.
type Direct struct{}

// Authorize implements Policy.
func (Direct) Authorize(req Request) error {
	pub, err := decodePubKey(req.PubKeyHex)
	if err != nil {
		return err
	}
	if len(req.Signature) != ed25519.SignatureSize {
		return errcode.New(errcode.AuthorizationFailed,
			"signature is %d bytes, want %d", len(req.Signature), ed25519.SignatureSize)
	}
	if !ed25519.Verify(pub, SigningPayload(req.CodeHash), req.Signature) {
		return errcode.New(errcode.AuthorizationFailed,
			"signature does not verify for key %s", req.PubKeyHex).
			WithDetail("code_hash", string(req.CodeHash))
	}
	return nil
}

// CommitDigest computes the blinded commitment for a (key, program) pair:
// SHA-256(domain + 0x00 + pubkey bytes + code hash).
func CommitDigest(pubKeyHex string, codeHash bytecode.Hash) (string, error) {
	pub, err := decodePubKey(pubKeyHex)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(DomainCommit))
	h.Write([]byte{0x00})
	h.Write(pub)
	h.Write([]byte(codeHash))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Clock abstracts time so ledger expiry is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

type commitment struct {
	digest    string
	createdAt time.Time
	attempts  int
}

// Ledger is the commit-reveal policy. Not safe for concurrent use; the
// engine serializes all access.
type Ledger struct {
	clock        Clock
	revealWindow time.Duration
	maxAttempts  int

	// keyed by digest; one live commitment per digest
	commitments map[string]*commitment
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithClock substitutes the time source.
func WithClock(c Clock) LedgerOption {
	return func(l *Ledger) { l.clock = c }
}

// WithRevealWindow sets how long a commitment stays live.
func WithRevealWindow(d time.Duration) LedgerOption {
	return func(l *Ledger) { l.revealWindow = d }
}

// WithMaxAttempts sets how many failed reveals a commitment survives.
func WithMaxAttempts(n int) LedgerOption {
	return func(l *Ledger) { l.maxAttempts = n }
}

// NewLedger creates an empty commit-reveal ledger.
func NewLedger(opts ...LedgerOption) *Ledger {
	l := &Ledger{
		clock:        systemClock{},
		revealWindow: DefaultRevealWindow,
		maxAttempts:  DefaultMaxAttempts,
		commitments:  make(map[string]*commitment),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Commit registers a blinded digest. Re-committing an identical digest
// refreshes its window and resets its attempt count.
func (l *Ledger) Commit(digest string) error {
	raw, err := hex.DecodeString(digest)
	if err != nil || len(raw) != sha256.Size {
		return errcode.New(errcode.CommitRevealMismatch,
			"commitment digest must be %d hex-encoded bytes", sha256.Size)
	}
	l.commitments[digest] = &commitment{digest: digest, createdAt: l.clock.Now()}
	return nil
}

// Pending returns the number of live, unexpired commitments.
func (l *Ledger) Pending() int {
	n := 0
	now := l.clock.Now()
	for _, c := range l.commitments {
		if now.Sub(c.createdAt) <= l.revealWindow {
			n++
		}
	}
	return n
}

// Authorize implements Policy. The reveal names its commitment via
// req.CommitDigest; the ledger recomputes the digest from the revealed
// program and compares. A matching reveal consumes the commitment. A
// mismatched reveal burns one attempt; the commitment is deleted once
// attempts are exhausted, so a caller cannot grind reveals against a
// stale commitment.
func (l *Ledger) Authorize(req Request) error {
	c, ok := l.commitments[req.CommitDigest]
	if !ok {
		return errcode.New(errcode.CommitRevealMismatch,
			"no live commitment with digest %s", req.CommitDigest)
	}
	if l.clock.Now().Sub(c.createdAt) > l.revealWindow {
		delete(l.commitments, req.CommitDigest)
		return errcode.New(errcode.CommitRevealMismatch,
			"commitment expired after %s", l.revealWindow)
	}

	expected, err := CommitDigest(req.PubKeyHex, req.CodeHash)
	if err != nil {
		return err
	}
	if expected != req.CommitDigest {
		c.attempts++
		if c.attempts >= l.maxAttempts {
			delete(l.commitments, req.CommitDigest)
			return errcode.New(errcode.CommitRevealMismatch,
				"commitment voided after %d failed reveals", c.attempts)
		}
		return errcode.New(errcode.CommitRevealMismatch,
			"revealed program does not match commitment").
			WithDetail("attempts_left", fmt.Sprintf("%d", l.maxAttempts-c.attempts))
	}

	delete(l.commitments, req.CommitDigest)
	return nil
}

// CommitmentRecord is the persistable state of one live commitment.
type CommitmentRecord struct {
	Digest    string
	CreatedAt time.Time
	Attempts  int
}

// Records exports all commitments for persistence, including expired ones;
// expiry is enforced at reveal time against the ledger's clock.
func (l *Ledger) Records() []CommitmentRecord {
	out := make([]CommitmentRecord, 0, len(l.commitments))
	for _, c := range l.commitments {
		out = append(out, CommitmentRecord{
			Digest:    c.digest,
			CreatedAt: c.createdAt,
			Attempts:  c.attempts,
		})
	}
	return out
}

// Restore loads previously persisted commitments into the ledger,
// overwriting any in-memory entry with the same digest.
func (l *Ledger) Restore(recs []CommitmentRecord) {
	for _, r := range recs {
		l.commitments[r.Digest] = &commitment{
			digest:    r.Digest,
			createdAt: r.CreatedAt,
			attempts:  r.Attempts,
		}
	}
}

// Open is a policy that admits everything. Used for read-only queries and
// stores created without an authority key.
type Open struct{}

// Authorize implements Policy.
func (Open) Authorize(Request) error { return nil }

func decodePubKey(pubKeyHex string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return nil, errcode.New(errcode.AuthorizationFailed,
			"public key is not valid hex: %v", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, errcode.New(errcode.AuthorizationFailed,
			"public key is %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}
