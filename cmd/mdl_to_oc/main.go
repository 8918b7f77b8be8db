package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/da0x/oc/api"
	"github.com/da0x/oc/translator"
)

var extract = flag.Bool("extract", false, "emit nested subsystems as components instead of inlining")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mdl_to_oc [flags] <input.mdl>\n\n")
		fmt.Fprintf(os.Stderr, "Converts a Simulink MDL file to Open Controls format.\n")
		fmt.Fprintf(os.Stderr, "Output is written to <model_name>-oc/ in the working directory.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	config := translator.DefaultConfig()
	config.ExtractSubsystems = *extract

	result := api.MDLToOC(flag.Arg(0), api.Config{Codegen: config})
	if result != api.RunSuccessful && result != api.RunSuccessfulButWithWarnings {
		os.Exit(1)
	}
}
