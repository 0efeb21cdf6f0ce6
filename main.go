package main

import "scriptdeck/cmd"

func main() {
	cmd.Execute()
}
