package common

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const base36 = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomBase36 returns a random string of n lowercase letters and digits.
func RandomBase36(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(base36[v.Int64()])
	}
	return sb.String(), nil
}

// NewTempID returns a locally generated identifier carrying TempIDPrefix.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTempID reports whether id was produced by NewTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}
