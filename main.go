package main

import (
	"github.com/sw33tLie/phishguard/cmd"
)

func main() {
	cmd.Execute()
}
