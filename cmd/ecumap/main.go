package main

import "github.com/JonMunkholm/ecumap/cmd/ecumap/cmd"

func main() {
	cmd.Execute()
}
