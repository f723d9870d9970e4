package main

import "github.com/nfrund/eventbus/cmd/skirmish/cmd"

func main() {
	cmd.Execute()
}
