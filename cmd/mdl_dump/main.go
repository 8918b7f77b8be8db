package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/da0x/oc/api"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mdl_dump <file.mdl> [subsystem_name]\n")
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	filter := ""
	if flag.NArg() > 1 {
		filter = flag.Arg(1)
	}

	if result := api.Dump(flag.Arg(0), filter); result != api.RunSuccessful {
		os.Exit(1)
	}
}
