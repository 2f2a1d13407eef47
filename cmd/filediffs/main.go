package main

import (
	"os"

	"github.com/kyosu-1/filediffs"
)

func main() {
	os.Exit(filediffs.Run())
}
