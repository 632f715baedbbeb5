package offline

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	kdfIterations = 100_000
	gcmNonceSize  = 12
)

var kdfSalt = []byte("chantier:v1:pbkdf2")

// storedForm tags the on-disk representation of a sealed value.
// The form is decided at serialization time and detected structurally
// on read, never by attempting decryption and catching failure.
type storedForm int

const (
	formAEAD    storedForm = iota // base64(nonce) ":" base64(ct||tag)
	formEncoded                   // bare base64, crypto-unavailable fallback
	formClear                     // plain text, pre-encryption legacy data
)

// DeriveKey stretches the application secret into a 256-bit key scoped
// to one session. PBKDF2-SHA256 handles the stretching; HKDF expands the
// result with the scope as info so two sessions never share an AEAD key.
func DeriveKey(secret string, scope Scope) ([32]byte, error) {
	var out [32]byte
	if secret == "" {
		return out, ErrCryptoUnavailable
	}
	mk := pbkdf2.Key([]byte(secret), kdfSalt, kdfIterations, 32, sha256.New)

	r := hkdf.New(sha256.New, mk, nil, []byte("chantier:v1:"+string(scope)))
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return [32]byte{}, err
	}
	for i := range mk {
		mk[i] = 0
	}
	return out, nil
}

// Cipher seals and opens opaque byte buffers with AES-256-GCM.
// A Cipher without a usable AEAD primitive still works: Seal degrades to
// a reversible base64 encoding and Open keeps reading all stored forms.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the session key and builds the AEAD primitive.
// On any failure it returns a fallback-only Cipher alongside the error so
// the caller can log the downgrade and keep going.
func NewCipher(secret string, scope Scope) (*Cipher, error) {
	key, err := DeriveKey(secret, scope)
	if err != nil {
		return &Cipher{}, err
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return &Cipher{}, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return &Cipher{}, err
	}
	return &Cipher{aead: aead}, nil
}

// Available reports whether Seal produces authenticated ciphertext.
func (c *Cipher) Available() bool { return c != nil && c.aead != nil }

// Seal encrypts plaintext into the colon-joined stored form. The nonce is
// freshly random on every call; reusing one with the same key would break
// GCM confidentiality, not just hygiene. Without an AEAD primitive the
// value is base64-encoded instead, which is reversible but not secret.
func (c *Cipher) Seal(plain []byte) (string, error) {
	if !c.Available() {
		return base64.StdEncoding.EncodeToString(plain), nil
	}
	nonce := make([]byte, gcmNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ct := c.aead.Seal(nil, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(nonce) + ":" + base64.StdEncoding.EncodeToString(ct), nil
}

// Open reverses Seal for any stored form: AEAD, encoded fallback, or
// legacy clear text written before encryption existed. On failure it
// returns the stored bytes unchanged together with the error; the caller
// decides whether an unparseable value means a corrupt store.
func (c *Cipher) Open(stored string) ([]byte, error) {
	switch classify(stored) {
	case formAEAD:
		if !c.Available() {
			return []byte(stored), ErrCryptoUnavailable
		}
		sep := strings.IndexByte(stored, ':')
		nonce, err := base64.StdEncoding.DecodeString(stored[:sep])
		if err != nil {
			return []byte(stored), err
		}
		ct, err := base64.StdEncoding.DecodeString(stored[sep+1:])
		if err != nil {
			return []byte(stored), err
		}
		plain, err := c.aead.Open(nil, nonce, ct, nil)
		if err != nil {
			return []byte(stored), errors.New("aead open: " + err.Error())
		}
		return plain, nil
	case formEncoded:
		plain, err := base64.StdEncoding.DecodeString(stored)
		if err != nil {
			return []byte(stored), err
		}
		return plain, nil
	default:
		return []byte(stored), nil
	}
}

// classify detects the stored form structurally. Legacy JSON contains
// colons too, so the AEAD form additionally requires both halves to be
// valid base64 with a correctly sized nonce.
func classify(stored string) storedForm {
	if sep := strings.IndexByte(stored, ':'); sep > 0 {
		nonce, err := base64.StdEncoding.DecodeString(stored[:sep])
		if err == nil && len(nonce) == gcmNonceSize {
			if _, err := base64.StdEncoding.DecodeString(stored[sep+1:]); err == nil {
				return formAEAD
			}
		}
		return formClear
	}
	if _, err := base64.StdEncoding.DecodeString(stored); err == nil {
		return formEncoded
	}
	return formClear
}
