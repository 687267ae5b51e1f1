package main

import "github.com/structwire/structwire/cmd"

func main() {
	cmd.Execute()
}
