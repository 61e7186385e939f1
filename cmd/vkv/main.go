package main

import "github.com/ValentinKolb/vKV/cmd"

func main() {
	cmd.Execute()
}
