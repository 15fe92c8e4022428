package main

import "github.com/iksnae/codemate/cmd"

func main() {
	cmd.Execute()
}
