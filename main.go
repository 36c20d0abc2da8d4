package main

import "kgtool/cmd"

func main() {
	cmd.Execute()
}
