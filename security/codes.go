package security

import (
	"crypto/rand"
	"math/big"
)

const (
	digits       = "0123456789"
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

func VerificationCode() (string, error) {
	return randomCode(digits, codeLength)
}

func ResetCode() (string, error) {
	return randomCode(alphanumeric, codeLength)
}

func ShareCode() (string, error) {
	return randomCode(alphanumeric, codeLength)
}

func randomCode(alphabet string, n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
