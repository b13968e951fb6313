// Command claims prints the registered claims of a bearer token without
// verifying its signature. Handy for inspecting tokens while debugging
// login issues against the identity provider.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: claims <token>")
		os.Exit(1)
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(os.Args[1], claims); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse token: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode claims: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(out))
}
