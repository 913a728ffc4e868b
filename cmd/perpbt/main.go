package main

import "github.com/rustyeddy/perpbt/internal/cli"

func main() {
	cli.Execute()
}
