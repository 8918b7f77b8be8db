package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/da0x/oc/api"
)

var outFile = flag.String("o", "", "output MDL file path (default: <dir-name without -oc suffix>.mdl)")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: oc_to_mdl [flags] <input-dir>\n\n")
		fmt.Fprintf(os.Stderr, "Converts OC files back to Simulink MDL format.\n")
		fmt.Fprintf(os.Stderr, "Reads .oc files and optional .oc.metadata from the input directory.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	result := api.OCToMDL(flag.Arg(0), *outFile)
	if result != api.RunSuccessful && result != api.RunSuccessfulButWithWarnings {
		os.Exit(1)
	}
}
