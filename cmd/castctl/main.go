// Package main provides the castctl CLI.
package main

import "github.com/mesh-intelligence/capcast/internal/cli"

func main() {
	cli.Execute()
}
