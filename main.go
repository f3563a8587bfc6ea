// ./main.go
package main

import (
	"github.com/dkoval87/gherkinforge/cmd"
)

// main is the entry point for the gherkinforge CLI.
func main() {
	cmd.Execute()
}
