package main

import "github.com/oshokin/ig-installer/cmd/ig-installer/cmd"

func main() {
	cmd.Execute()
}
