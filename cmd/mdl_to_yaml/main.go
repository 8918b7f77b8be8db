package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/da0x/oc/api"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mdl_to_yaml <input.mdl>\n\n")
		fmt.Fprintf(os.Stderr, "Exports YAML element schemas from a Simulink MDL file.\n")
		fmt.Fprintf(os.Stderr, "Output is written to <model_name>-yaml/.\n")
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	result := api.MDLToYAML(flag.Arg(0))
	if result != api.RunSuccessful && result != api.RunSuccessfulButWithWarnings {
		os.Exit(1)
	}
}
