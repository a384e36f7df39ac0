// cmd/main.go
package main

import (
	"go-bank-ledger/app"
)

// @title           Go-Bank Ledger API
// @version         1.0
// @description     Account ledger and transaction engine: deposits, withdrawals, transfers and pix payments.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
