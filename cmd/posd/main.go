package main

import "github.com/rustyeddy/posledger/internal/cli"

func main() {
	cli.Execute()
}
