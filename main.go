package main

import "github.com/KaramelBytes/tabcast-cli/cmd"

func main() {
	cmd.Execute()
}
