// Command chemstock turns JSON:API chemical inventory documents into
// spreadsheet-ready reports. It converts single documents or whole
// directories, fetches the inventory straight from the backend API, serves
// the conversion over HTTP with asynchronous exports, and publishes report
// rows to Google Sheets.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional. godotenv never overwrites variables that are
	// already set, so the process environment always wins.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: load .env:", err)
	}
	os.Exit(execute())
}
