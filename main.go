package main

import "github.com/pharmassist/pharmassist/cmd"

func main() {
	cmd.Execute()
}
