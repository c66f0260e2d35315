package main

import "github.com/Irfan430/wp-bot/cmd"

func main() {
	cmd.Execute()
}
