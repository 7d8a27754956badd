package main

import "github.com/chriserin/cukeplan/cmd"

func main() {
	cmd.Execute()
}
