package main

import "evalsphere/internal/app/server"

func main() {
	server.Run()
}
