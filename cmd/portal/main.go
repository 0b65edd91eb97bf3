package main

import "hrportal/internal/app/portal"

func main() {
	portal.Run()
}
