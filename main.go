package main

import "github.com/AvaProtocol/mevboost-aa/cmd"

func main() {
	cmd.Execute()
}
