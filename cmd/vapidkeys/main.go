// Command vapidkeys prints a fresh VAPID key pair for the push section of
// the configuration file.
package main

import (
	"fmt"
	"os"

	"github.com/SherClockHolmes/webpush-go"
)

func main() {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate VAPID keys: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("push:")
	fmt.Printf("  vapid_public_key: %q\n", publicKey)
	fmt.Printf("  vapid_private_key: %q\n", privateKey)
}
