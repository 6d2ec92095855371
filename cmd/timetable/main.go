// Package main is the timetable command line: seed, serve and offline tools.
package main

import (
	"context"

	"github.com/garyellow/school-timetable-go/cmd/timetable/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
