// Package auth holds the authentication boundary: password hashing, signed
// tokens, the request guard and the ownership check.
//
// WHY BCRYPT?
// bcrypt is deliberately slow and salts every hash with fresh randomness, so
// two users with the same password end up with different digests and an
// offline attacker pays the full work factor for every guess.
//
// Digest format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^12 rounds)
//	 version
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/linkup/internal/apperror"
	"github.com/sakif/linkup/internal/model"
)

const (
	// DefaultCost is the production work factor.
	DefaultCost = 12

	// MinProductionCost is the floor the config layer clamps to.
	MinProductionCost = 10

	// maxPasswordBytes is bcrypt's input limit. Longer inputs would be
	// silently truncated, so they are rejected instead.
	maxPasswordBytes = 72
)

// PasswordService hashes and verifies passwords.
//
// It's a struct (not free functions) so that the cost can be injected:
// tests use the bcrypt minimum (4) to stay fast.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with DefaultCost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: DefaultCost}
}

// NewPasswordServiceWithCost creates a PasswordService with an explicit
// cost. Values below MinProductionCost are raised to it; use
// NewPasswordServiceForTest when a cheaper hash is really wanted.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	if cost < MinProductionCost {
		cost = MinProductionCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest creates a PasswordService with an unclamped
// cost. Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Cost returns the configured work factor.
func (p *PasswordService) Cost() int {
	return p.cost
}

// Hash hashes plaintext with a fresh salt and returns the stored credential.
func (p *PasswordService) Hash(plaintext string) (model.Credential, error) {
	if len(plaintext) > maxPasswordBytes {
		return model.Credential{}, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return model.Credential{}, fmt.Errorf("auth: hashing password: %w", err)
	}

	return model.Credential{Algorithm: model.AlgorithmBcrypt, Digest: string(hashed)}, nil
}

// Verify reports whether plaintext matches the stored credential.
//
// It never returns an error: a malformed digest, an empty digest, an unknown
// algorithm tag or an empty plaintext are all simply "no match". The
// comparison itself is bcrypt's constant-time compare.
func (p *PasswordService) Verify(cred model.Credential, plaintext string) bool {
	if plaintext == "" || cred.IsZero() || cred.Algorithm != model.AlgorithmBcrypt {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(cred.Digest), []byte(plaintext)) == nil
}

// NeedsRehash reports whether cred should be replaced by a fresh Hash of the
// same password: it was produced by another algorithm or a lower cost.
// Call it only after Verify succeeded.
func (p *PasswordService) NeedsRehash(cred model.Credential) bool {
	if cred.Algorithm != model.AlgorithmBcrypt {
		return true
	}
	cost, err := bcrypt.Cost([]byte(cred.Digest))
	if err != nil {
		return true
	}
	return cost < p.cost
}
