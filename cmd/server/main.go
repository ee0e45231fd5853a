package main

import "fleetpay/internal/app/server"

func main() {
	server.Run()
}
