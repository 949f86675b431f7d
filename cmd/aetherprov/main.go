package main

import "github.com/aetherlink/aetherprov/cmd/aetherprov/cmd"

func main() {
	cmd.Execute()
}
