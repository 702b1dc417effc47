package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/bookkeeper/internal/server/admin"
)

func main() {

	if err := admin.Run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("accountctl: %v", err)
	}

}
