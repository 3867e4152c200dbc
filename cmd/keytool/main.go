// Command keytool encrypts and decrypts single values with the field cipher
// and computes the storage key an entity id maps to, for operators
// inspecting the table.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
