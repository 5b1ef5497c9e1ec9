package main

import (
	"newsstand/cmd/handlers"
)

func main() {
	handlers.Execute()
}
