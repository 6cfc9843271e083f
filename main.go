package main

import "github.com/office365go/office365-client/cmd"

func main() {
	cmd.Execute()
}
