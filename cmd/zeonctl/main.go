// zeonctl is the operator CLI for the Zeon agent: key setup, fundraiser links
// and QR codes, and a terminal view of agent replies.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
