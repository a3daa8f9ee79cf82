package service

import (
	"crypto/rand"
	"math/big"
)

const otpAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var otpAlphabetSize = big.NewInt(int64(len(otpAlphabet)))

func generateCode(length int) (string, error) {
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, otpAlphabetSize)
		if err != nil {
			return "", err
		}
		out[i] = otpAlphabet[n.Int64()]
	}
	return string(out), nil
}
