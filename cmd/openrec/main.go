package main

import (
	"fmt"
	"os"

	_ "github.com/brimdata/openrec/cmd/openrec/eval"
	_ "github.com/brimdata/openrec/cmd/openrec/inspect"
	"github.com/brimdata/openrec/cmd/openrec/root"
	_ "github.com/brimdata/openrec/cmd/openrec/typecmd"
)

func main() {
	if err := root.Openrec.ExecRoot(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
