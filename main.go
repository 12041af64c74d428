package main

import "github.com/go5gran/ransim/cmd"

func main() {
	cmd.Execute()
}
