package main

import "schoolops/internal/app/server"

func main() {
	server.Run()
}
