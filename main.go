package main

import "github.com/ngrpv/untar/internal/cli"

func main() {
	cli.Execute()
}
