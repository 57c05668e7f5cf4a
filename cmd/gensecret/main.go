package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/avolkov/authd/internal/service/auth/tokencodec"
)

// Prints a random key long enough to pass the token codec's policy.
// Put the output into SECRET_KEY.
func main() {
	b := make([]byte, tokencodec.MinSecretKeyLen)

	_, err := rand.Read(b)
	if err != nil {
		fmt.Printf("error while generating secret key: %v", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
