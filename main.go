package main

import "deployadmin/cmd"

func main() {
	cmd.Execute()
}
