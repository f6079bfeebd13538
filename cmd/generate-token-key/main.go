package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/justinabrahms/pollchess/internal/auth"
)

func main() {
	out := flag.String("out", "", "write the private key to this file instead of stdout")
	kid := flag.String("kid", "pollchess-key-1", "key id used in the printed JWK")
	flag.Parse()

	// Generate new ECDSA key pair for ES256
	key, err := auth.GenerateKey()
	if err != nil {
		log.Fatal("Failed to generate private key:", err)
	}

	privKeyPEM, err := auth.EncodeKey(key)
	if err != nil {
		log.Fatal("Failed to encode private key:", err)
	}

	jwkJSON, err := json.MarshalIndent(auth.PublicJWK(key, *kid), "", "  ")
	if err != nil {
		log.Fatal("Failed to encode public key:", err)
	}

	if *out != "" {
		if err := os.WriteFile(*out, privKeyPEM, 0o600); err != nil {
			log.Fatal("Failed to write private key:", err)
		}
		fmt.Printf("Private key written to %s\n", *out)
		fmt.Println("Point auth.signing_key_file (or POLLCHESS_AUTH_SIGNING_KEY_FILE) at it.")
	} else {
		fmt.Println("=== PRIVATE KEY (Keep this secret!) ===")
		fmt.Println("Save this to a file and set auth.signing_key_file to its path:")
		fmt.Println()
		fmt.Print(string(privKeyPEM))
	}

	fmt.Println()
	fmt.Println("=== PUBLIC KEY (JWK) ===")
	fmt.Println("Player tokens can be verified offline with:")
	fmt.Println()
	fmt.Printf("%s\n", jwkJSON)
	fmt.Println()
	fmt.Println("=== IMPORTANT SECURITY NOTES ===")
	fmt.Println("1. NEVER commit the private key to version control")
	fmt.Println("2. Set appropriate file permissions (chmod 600) on the private key file")
	fmt.Println("3. Rotating the key invalidates every token issued for games in progress")
}
