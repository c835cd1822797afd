package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// gen_api_key.go - Utility to generate a deployment API key
//
// Usage:
//   go run scripts/gen_api_key.go
//
// Output:
//   pg_9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08
//
// Put the generated value in the API_KEY environment variable of the server
// and send it as "Authorization: Bearer <key>" on every /v1 request.

func main() {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("pg_%s\n", hex.EncodeToString(buf))
}
