package main

import "github.com/Tiliavir/shift-tracker/cmd"

func main() {
	cmd.Execute()
}
