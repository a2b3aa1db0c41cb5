package main

import "github.com/suidash/backend/cmd"

func main() {
	cmd.Execute()
}
