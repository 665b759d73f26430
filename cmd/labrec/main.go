package main

import "labrec/internal/cli"

func main() {
	cli.Execute()
}
