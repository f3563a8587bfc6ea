// cmd/version.go
package cmd

// Version is the application version, intended to be set at build time:
// go build -ldflags "-X github.com/dkoval87/gherkinforge/cmd.Version=1.0.0"
var Version = "0.9.0"
