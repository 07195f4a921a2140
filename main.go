package main

import "github.com/strrl/repo-context/cmd/repo-context/commands"

func main() {
	commands.Execute()
}
