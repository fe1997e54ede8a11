package main

import "blogicum/cmd/blogctl/commands"

func main() {
	commands.Execute()
}
