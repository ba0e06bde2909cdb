// Command manage runs administrative operations against the Torres database:
//
//	manage create-admin <email> <password>
//	manage reset-db [--confirm CONFIRMO]
//	manage seed-data
//	manage seed-selic <filepath>
//	manage cleanup-logs
//	manage stats [--json]
//	manage issue-token <email>
//	manage migrate
//	manage expire-plans
//	manage worker [--cleanup-interval D] [--expire-interval D]
//
// Exit codes: 0 success, 1 failure, 2 usage or validation error, 3 conflict,
// 4 confirmation declined, 5 invalid configuration.
package main

import (
	"os"

	"torres_backend/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
