// orrery-apikey generates the bcrypt hash of a static API key for the
// server.api_key_hash configuration setting. The key itself is read from
// stdin so it never appears in shell history.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	fmt.Fprint(os.Stderr, "API key: ")
	reader := bufio.NewReader(os.Stdin)
	key, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read key: %v\n", err)
		os.Exit(1)
	}
	key = strings.TrimRight(key, "\r\n")
	if key == "" {
		fmt.Fprintln(os.Stderr, "API key must not be empty")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash key: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}
