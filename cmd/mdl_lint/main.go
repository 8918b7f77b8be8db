package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/da0x/oc/api"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mdl_lint <model.mdl> [model2.mdl ...]\n\n")
		fmt.Fprintf(os.Stderr, "Validates MDL models against Open Controls structural rules.\n\n")
		fmt.Fprintf(os.Stderr, "Library Rules:\n")
		fmt.Fprintf(os.Stderr, "  LIB-001  Element names should represent their type\n")
		fmt.Fprintf(os.Stderr, "  LIB-002  Elements should not link to other elements\n")
		fmt.Fprintf(os.Stderr, "  LIB-003  Elements should be masked with configuration parameters\n")
		fmt.Fprintf(os.Stderr, "  LIB-004  Internal subsystems should be helpers, not elements\n\n")
		fmt.Fprintf(os.Stderr, "App Rules:\n")
		fmt.Fprintf(os.Stderr, "  APP-001  App should link elements from libraries\n")
		fmt.Fprintf(os.Stderr, "  APP-002  Library links should be enforced (not disabled/broken)\n")
		fmt.Fprintf(os.Stderr, "  APP-003  App should only contain elements and connections\n")
		fmt.Fprintf(os.Stderr, "  APP-004  App should have connections between elements\n")
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if failed := api.Lint(flag.Args()); failed > 0 {
		os.Exit(1)
	}
}
