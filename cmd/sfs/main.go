package main

import (
	_ "embed"
)

//go:embed VERSION
var Version string

func main() {
	Execute()
}
