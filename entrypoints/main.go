package main

import "github.com/Laisky/nicosearch/cmd"

func main() {
	cmd.Execute()
}
