package utils

import (
	"math/rand"
	"os"

	"github.com/sparksblog/sparks/utils/dotenv"
)

// API error codes surfaced in JSON error payloads.
const (
	ErrorTokenAuthFail = 1001
	ErrorBackendRead   = 1002
	ErrorBackendWrite  = 1003
	ErrorInvalidInput  = 1004
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// RandomAlphabetString returns a random lower case string of length n.
func RandomAlphabetString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

func IsProdEnv() bool {
	return os.Getenv("SPARKS_ENV") == dotenv.ProdEnv
}
