package main

import "github.com/deploymenttheory/go-vsfs/cmd"

func main() {
	cmd.Execute()
}
