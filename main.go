package main

import "github.com/kebairia/cofre/cmd"

func main() {
	cmd.Execute()
}
