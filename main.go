package main

import "github.com/KaramelBytes/datasense-cli/cmd"

func main() {
	cmd.Execute()
}
