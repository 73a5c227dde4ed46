// Package keys manages the ed25519 identity of a genome. The signing key
// lives in a locked memory buffer and is structurally excluded from every
// serialization path: the wrapper type fails all marshal interfaces instead
// of relying on field tags or caller discipline.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
)

var (
	ErrSecretNotSerializable = errors.New("secret key material is not serializable")
	ErrSecretUnavailable     = errors.New("secret key buffer is not available")
)

// SecretKey owns the private half of a keypair inside a guarded buffer.
// The zero value is unusable; keys are minted through Generate.
type SecretKey struct {
	buf *memguard.LockedBuffer
}

func newSecretKey(priv ed25519.PrivateKey) SecretKey {
	// NewBufferFromBytes wipes the source slice once the buffer owns it.
	return SecretKey{buf: memguard.NewBufferFromBytes(priv)}
}

// private returns a borrowed view of the signing key. Callers must not
// retain the slice past the call that needed it.
func (s SecretKey) private() (ed25519.PrivateKey, error) {
	if s.buf == nil || !s.buf.IsAlive() {
		return nil, ErrSecretUnavailable
	}
	return ed25519.PrivateKey(s.buf.Bytes()), nil
}

func (s SecretKey) clone() (SecretKey, error) {
	priv, err := s.private()
	if err != nil {
		return SecretKey{}, err
	}
	tmp := make([]byte, len(priv))
	copy(tmp, priv)
	return SecretKey{buf: memguard.NewBufferFromBytes(tmp)}, nil
}

// Destroy wipes and releases the guarded buffer. Safe to call twice.
func (s SecretKey) Destroy() {
	if s.buf != nil {
		s.buf.Destroy()
	}
}

func (s SecretKey) MarshalJSON() ([]byte, error) { return nil, ErrSecretNotSerializable }
func (s SecretKey) MarshalText() ([]byte, error) { return nil, ErrSecretNotSerializable }
func (s SecretKey) MarshalBinary() ([]byte, error) { return nil, ErrSecretNotSerializable }

func (s *SecretKey) UnmarshalJSON([]byte) error { return ErrSecretNotSerializable }

func (s SecretKey) String() string   { return "SecretKey(redacted)" }
func (s SecretKey) GoString() string { return "keys.SecretKey{redacted}" }

// Keypair binds a genome's public identity to its guarded signing key and
// tracks how the key has been derived across evolution steps.
type Keypair struct {
	Public     ed25519.PublicKey
	Generation uint64
	Path       []uint32

	secret SecretKey
}

// Generate mints a fresh generation-zero keypair from the system entropy
// source.
func Generate() (Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, fmt.Errorf("generate keypair: %w", err)
	}
	return Keypair{
		Public:     pub,
		Generation: 0,
		Path:       []uint32{0},
		secret:     newSecretKey(priv),
	}, nil
}

// Sign produces a 64-byte ed25519 signature over message.
func (k Keypair) Sign(message []byte) ([]byte, error) {
	priv, err := k.secret.private()
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(priv, message), nil
}

// Verify reports whether sig is a valid signature over message by pub.
// Malformed inputs verify as false rather than panicking.
func Verify(pub, message, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, sig)
}

// Evolve derives the next keypair generation from the current secret seed,
// the target generation number and the genome sequence. The same inputs
// always derive the same key, so an organism's key lineage is replayable
// from its derivation path.
func (k *Keypair) Evolve(newGeneration uint64, sequence []byte) error {
	priv, err := k.secret.private()
	if err != nil {
		return err
	}

	h := sha256.New()
	h.Write(priv[:ed25519.SeedSize])
	var gen [8]byte
	binary.LittleEndian.PutUint64(gen[:], newGeneration)
	h.Write(gen[:])
	h.Write(sequence)

	next := ed25519.NewKeyFromSeed(h.Sum(nil))
	pub := next.Public().(ed25519.PublicKey)

	k.secret.Destroy()
	k.secret = newSecretKey(next)
	k.Public = pub
	k.Generation = newGeneration
	k.Path = append(k.Path, uint32(newGeneration))
	return nil
}

// Clone deep-copies the keypair, including a fresh guarded buffer for the
// secret.
func (k Keypair) Clone() (Keypair, error) {
	secret, err := k.secret.clone()
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{
		Public:     append(ed25519.PublicKey(nil), k.Public...),
		Generation: k.Generation,
		Path:       append([]uint32(nil), k.Path...),
		secret:     secret,
	}, nil
}

// Destroy releases the guarded secret. The keypair cannot sign or evolve
// afterwards.
func (k *Keypair) Destroy() {
	k.secret.Destroy()
}
