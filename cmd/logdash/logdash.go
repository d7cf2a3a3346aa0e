package main

import "github.com/Egor213/LogDash/internal/app"

func main() {
	app.Execute()
}
