package services

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
)

// passwordParams are the argon2id parameters for new hashes
var passwordParams = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  1,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

var errMalformedHash = errors.New("malformed password hash")

// HashPassword derives an argon2id hash of password with a random salt.
// The result is encoded as $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>.
func HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, passwordParams)
	if err != nil {
		return "", fmt.Errorf("failed to create argon2id hash: %w", err)
	}
	return hash, nil
}

// VerifyPassword reports whether password matches the encoded argon2id hash.
// The hash parameters are taken from the encoded value.
func VerifyPassword(encoded, password string) (bool, error) {
	params, _, key, err := argon2id.DecodeHash(encoded)
	if err != nil {
		return false, fmt.Errorf("%w: %w", errMalformedHash, err)
	}
	// argon2 panics on degenerate parameters
	if params.Iterations == 0 || params.Parallelism == 0 || params.Memory == 0 || len(key) == 0 {
		return false, errMalformedHash
	}

	match, err := argon2id.ComparePasswordAndHash(password, encoded)
	if err != nil {
		return false, fmt.Errorf("%w: %w", errMalformedHash, err)
	}
	return match, nil
}
