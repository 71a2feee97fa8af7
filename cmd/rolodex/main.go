// Command rolodex runs the rolodex CRM: the REST server, the record CLI and
// the opportunity board.
package main

import "github.com/mesh-intelligence/rolodex/internal/cli"

func main() {
	cli.Execute()
}
