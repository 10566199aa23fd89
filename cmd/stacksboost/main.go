package main

import "os"

func main() {
	os.Exit(NewRunner().Run(os.Args[1:]))
}
