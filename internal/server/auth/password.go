package auth

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/cryptox"
)

const (
	saltLen = 16

	argon2Prefix = "$argon2id$"

	// werkzeug's default when the iteration count is omitted.
	legacyDefaultIterations = 260000
	legacyMaxIterations     = 5_000_000
)

var b64 = base64.RawStdEncoding

// CredentialStore hashes and verifies passwords. New credentials use argon2id
// in the PHC string format; legacy "pbkdf2:sha256:<n>$<salt>$<hex>" credentials
// still verify.
type CredentialStore struct {
	params cryptox.Argon2Params
	dummy  string
}

// NewCredentialStore returns a store hashing with params.
func NewCredentialStore(params cryptox.Argon2Params) *CredentialStore {
	s := &CredentialStore{params: params}
	s.dummy = s.Hash("threatscope-dummy-password")
	return s
}

// Hash derives a credential with a fresh random salt.
func (s *CredentialStore) Hash(plaintext string) string {
	salt := common.GenerateRandByteArray(saltLen)
	key := cryptox.DeriveArgon2ID([]byte(plaintext), salt, s.params)
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, 19, s.params.Memory, s.params.Time, s.params.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key))
}

// Verify reports whether plaintext matches credential. Malformed credentials
// verify as false.
func (s *CredentialStore) Verify(plaintext, credential string) bool {
	switch {
	case strings.HasPrefix(credential, argon2Prefix):
		return verifyArgon2(plaintext, credential)
	case strings.HasPrefix(credential, "pbkdf2:sha256"):
		return verifyLegacy(plaintext, credential)
	}
	return false
}

// VerifyDummy spends the same work as a real verification and always fails.
// Login calls it for unknown emails.
func (s *CredentialStore) VerifyDummy(plaintext string) bool {
	_ = s.Verify(plaintext, s.dummy)
	return false
}

// NeedsRehash reports whether credential was produced by another scheme or
// with other parameters than the current ones.
func (s *CredentialStore) NeedsRehash(credential string) bool {
	p, _, _, ok := parseArgon2(credential)
	return !ok || p.Memory != s.params.Memory || p.Time != s.params.Time || p.Threads != s.params.Threads
}

func parseArgon2(credential string) (cryptox.Argon2Params, []byte, []byte, bool) {
	var p cryptox.Argon2Params

	parts := strings.Split(credential, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != 19 {
		return p, nil, nil, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, false
	}
	if p.Memory == 0 || p.Memory > 1<<20 || p.Time == 0 || p.Time > 16 || p.Threads == 0 {
		return p, nil, nil, false
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, false
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) < 16 || len(key) > 64 {
		return p, nil, nil, false
	}
	p.KeyLen = uint32(len(key))

	return p, salt, key, true
}

func verifyArgon2(plaintext, credential string) bool {
	p, salt, key, ok := parseArgon2(credential)
	if !ok {
		return false
	}
	return cryptox.Equal(cryptox.DeriveArgon2ID([]byte(plaintext), salt, p), key)
}

func verifyLegacy(plaintext, credential string) bool {
	parts := strings.SplitN(credential, "$", 3)
	if len(parts) != 3 || parts[1] == "" {
		return false
	}

	method := strings.Split(parts[0], ":")
	if len(method) < 2 || method[0] != "pbkdf2" || method[1] != "sha256" {
		return false
	}
	iterations := legacyDefaultIterations
	switch len(method) {
	case 2:
	case 3:
		n, err := strconv.Atoi(method[2])
		if err != nil || n <= 0 || n > legacyMaxIterations {
			return false
		}
		iterations = n
	default:
		return false
	}

	want, err := hex.DecodeString(parts[2])
	if err != nil || len(want) == 0 || len(want) > 64 {
		return false
	}

	got := cryptox.DerivePBKDF2SHA256([]byte(plaintext), []byte(parts[1]), iterations, len(want))
	return cryptox.Equal(got, want)
}
