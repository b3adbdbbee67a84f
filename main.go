package main

import "shopmigrate/cmd"

func main() {
	cmd.Execute()
}
