package main

import "github.com/kbukum/execkit/internal/cli"

func main() {
	cli.Execute()
}
