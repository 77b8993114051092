package main

import "tender-aggregator-api/app"

func main() {
	app.Run()
}
