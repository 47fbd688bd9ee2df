package main

import "github.com/ademuri/vinylvault/cmd"

func main() {
	cmd.Execute()
}
