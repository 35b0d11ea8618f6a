// Command tourctl is the operator CLI: schema migration, demo data and
// admin account creation.
package main

import "github.com/iliyamo/travel-booking-api/cmd/tourctl/commands"

func main() {
	commands.Execute()
}
