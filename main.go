package main

import "lookahead/internal/cli"

func main() {
	cli.Execute()
}
