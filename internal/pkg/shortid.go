package pkg

import (
	cryptoRand "crypto/rand"
	"math/big"
	"strings"
)

// ShortIDAlphabet leaves out 0/O and 1/I/l so ids survive being read aloud.
const (
	ShortIDAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz"
	ShortIDLength   = 8
)

func RandString(alphabet string, n int) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		x, err := cryptoRand.Int(cryptoRand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[x.Int64()])
	}
	return b.String(), nil
}

func NewShortID() (string, error) {
	return RandString(ShortIDAlphabet, ShortIDLength)
}
