package main

import "marlin/cmd"

func main() {
	cmd.Execute()
}
