package main

import "github.com/flatmate/household-engine/cmd/flatshare/root"

func main() {
	root.Execute()
}
