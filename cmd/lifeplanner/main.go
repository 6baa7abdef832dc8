package main

import "lifeplanner/cmd/lifeplanner/root"

func main() {
	root.Execute()
}
