// cmd/photo-metadata/main.go
package main

import (
	"github.com/bstardust/photo-metadata/internal/logger"
	"github.com/bstardust/photo-metadata/pkg/cli"
)

func main() {
	logger.Init()
	cli.Execute()
}
