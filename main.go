package main

import "github.com/KaramelBytes/skelaudit-cli/cmd"

func main() {
	cmd.Execute()
}
