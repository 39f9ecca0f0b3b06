// Package main provides the protofetch CLI.
package main

import "github.com/mesh-intelligence/protofetch/internal/cli"

func main() {
	cli.Execute()
}
