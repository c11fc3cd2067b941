// Package main starts filevault.
package main

import (
	"os"

	"github.com/yeisme/filevault/pkg/cmd"
)

//	@title			FileVault API
//	@version		1.0
//	@description	FileVault stores files for authenticated users: upload, list, download and delete.

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//go:generate swag init -g cmd/filevault/main.go -d ../../ -o ../../docs --parseInternal

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
