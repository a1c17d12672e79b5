package nonce

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hasher computes a keyed digest of data and returns it hex encoded.
// Implementations must return at least 12 hex characters.
type Hasher interface {
	Name() string
	Sum(secret []byte, data string) string
}

const (
	HashHMACMD5 = "hmac-md5"
	HashBlake3  = "blake3"
)

// HMACMD5 produces hex HMAC-MD5 digests, which is what WordPress wp_hash
// yields when the salt is the connection token secret. Use it when nonces
// must interoperate with nonces minted by the partner.
type HMACMD5 struct{}

func (HMACMD5) Name() string { return HashHMACMD5 }

func (HMACMD5) Sum(secret []byte, data string) string {
	mac := hmac.New(md5.New, secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// blake3KeyContext separates nonce keys from any other use of the secret.
const blake3KeyContext = "framegate 2026-10 frame nonce key"

// Blake3 produces keyed BLAKE3 digests. The 32-byte key is derived from the
// secret, so secrets of any length are accepted. The format is internal to
// framegate and does not interoperate with WordPress nonces.
type Blake3 struct{}

func (Blake3) Name() string { return HashBlake3 }

func (Blake3) Sum(secret []byte, data string) string {
	key := make([]byte, 32)
	blake3.DeriveKey(blake3KeyContext, secret, key)
	hasher, err := blake3.NewKeyed(key)
	if err != nil {
		panic("nonce: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = hasher.Write([]byte(data))
	return hex.EncodeToString(hasher.Sum(nil))
}

// HasherByName maps a configured algorithm name to a Hasher.
func HasherByName(name string) (Hasher, error) {
	switch name {
	case HashHMACMD5, "":
		return HMACMD5{}, nil
	case HashBlake3:
		return Blake3{}, nil
	default:
		return nil, fmt.Errorf("unknown nonce hash algorithm %q", name)
	}
}
