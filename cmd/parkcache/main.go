// Package main is the entry point for the parking client.
package main

import "github.com/unkn0wn-root/parkcache/internal/cli"

func main() {
	cli.Execute()
}
