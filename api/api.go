// Package api wires the translation passes into the command line drivers.
package api

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/da0x/oc/ir"
	"github.com/da0x/oc/lifter"
	"github.com/da0x/oc/lint"
	"github.com/da0x/oc/mdl"
	"github.com/da0x/oc/metadata"
	"github.com/da0x/oc/oc"
	"github.com/da0x/oc/schema"
	"github.com/da0x/oc/translator"
)

// Config holds parameters for the Run functions.
type Config struct {
	// Codegen configures the forward pass; nil uses the defaults.
	Codegen *translator.Config
}

// Result indicates if a Run function was successful or how it failed.
type Result int

const (
	// RunSuccessful indicates the run completed without warnings.
	RunSuccessful Result = iota
	// RunSuccessfulButWithWarnings indicates the run completed but produced
	// diagnostics.
	RunSuccessfulButWithWarnings
	// RunFailedLoadingModel indicates the MDL container or model could not
	// be read.
	RunFailedLoadingModel
	// RunFailedParsingOC indicates OC sources had syntax errors.
	RunFailedParsingOC
	// RunFailedWritingOutputFiles indicates generated output could not be
	// written to disk.
	RunFailedWritingOutputFiles
)

// MDLToOC converts an MDL file into one .oc file per top-level subsystem
// plus the sidecar metadata, under <stem>-oc/.
func MDLToOC(inputPath string, config Config) Result {
	modelName := stem(inputPath)
	ocDir := modelName + "-oc"

	fmt.Printf("Loading MDL file: %s\n", inputPath)

	container, model, result := loadModel(inputPath)
	if result != RunSuccessful {
		return result
	}

	fmt.Printf("Model UUID: %s\n", model.UUID)
	fmt.Printf("Library Type: %s\n", model.LibraryType)
	fmt.Printf("Systems: %d\n", len(model.Systems))

	root := model.RootSystem()
	if root == nil {
		fmt.Fprintln(os.Stderr, "Error: No root system found")
		return RunFailedLoadingModel
	}

	if err := os.MkdirAll(ocDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return RunFailedWritingOutputFiles
	}

	libraryName := libraryNameFor(modelName)
	warnings := false
	exported := 0

	fmt.Println("\nExporting...")
	for _, blk := range root.Subsystems() {
		if blk.SubsystemRef == "" {
			continue
		}
		subsys := model.System(blk.SubsystemRef)
		if subsys == nil {
			fmt.Fprintf(os.Stderr, "  Warning: Could not find system %s\n", blk.SubsystemRef)
			warnings = true
			continue
		}

		named := *subsys
		named.Name = blk.Name

		content, errs := translator.Translate(model, &named, libraryName, config.Codegen)
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "  Warning: %s: %v\n", blk.Name, err)
			warnings = true
		}

		ocPath := filepath.Join(ocDir, sanitizeFilename(blk.Name)+".oc")
		if err := os.WriteFile(ocPath, []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "  Error: Could not write %s\n", ocPath)
			return RunFailedWritingOutputFiles
		}
		exported++
		fmt.Printf("  %s\n", blk.Name)
	}

	fmt.Printf("\nExported %d OC file(s) to %s/\n", exported, ocDir)

	model.Name = modelName
	meta := metadata.Build(model, container.PartPaths(), container.RawParts())
	metaPath := filepath.Join(ocDir, modelName+".oc.metadata")
	if err := metadata.WriteFile(metaPath, meta); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return RunFailedWritingOutputFiles
	}
	fmt.Printf("Exported metadata to %s\n", metaPath)

	if warnings {
		return RunSuccessfulButWithWarnings
	}
	return RunSuccessful
}

// MDLToYAML converts an MDL file into one schema YAML per top-level
// subsystem, under <stem>-yaml/.
func MDLToYAML(inputPath string) Result {
	modelName := stem(inputPath)
	yamlDir := modelName + "-yaml"

	fmt.Printf("Loading MDL file: %s\n", inputPath)

	_, model, result := loadModel(inputPath)
	if result != RunSuccessful {
		return result
	}
	root := model.RootSystem()
	if root == nil {
		fmt.Fprintln(os.Stderr, "Error: No root system found")
		return RunFailedLoadingModel
	}

	if err := os.MkdirAll(yamlDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return RunFailedWritingOutputFiles
	}

	libraryName := libraryNameFor(modelName)
	warnings := false
	exported := 0

	for _, blk := range root.Subsystems() {
		if blk.SubsystemRef == "" {
			continue
		}
		subsys := model.System(blk.SubsystemRef)
		if subsys == nil {
			fmt.Fprintf(os.Stderr, "  Warning: Could not find system %s\n", blk.SubsystemRef)
			warnings = true
			continue
		}

		named := *subsys
		named.Name = blk.Name

		elemSchema, errs := schema.Convert(model, &named, libraryName)
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "  Warning: %s: %v\n", blk.Name, err)
			warnings = true
		}
		content, err := schema.Write(elemSchema)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  Error: %s: %v\n", blk.Name, err)
			return RunFailedWritingOutputFiles
		}

		yamlPath := filepath.Join(yamlDir, sanitizeFilename(blk.Name)+"_schema.yaml")
		if err := os.WriteFile(yamlPath, []byte(content), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "  Error: Could not write %s\n", yamlPath)
			return RunFailedWritingOutputFiles
		}
		exported++
		fmt.Printf("  %s\n", blk.Name)
	}

	fmt.Printf("\nExported %d YAML schema(s) to %s/\n", exported, yamlDir)
	if warnings {
		return RunSuccessfulButWithWarnings
	}
	return RunSuccessful
}

// OCToMDL converts a directory of .oc files (plus optional sidecar
// metadata) back into an MDL file.
func OCToMDL(inputDir, outputPath string) Result {
	dirName := filepath.Base(filepath.Clean(inputDir))
	modelName := strings.TrimSuffix(dirName, "-oc")
	if outputPath == "" {
		outputPath = modelName + ".mdl"
	}

	fmt.Printf("Input directory: %s\n", inputDir)
	fmt.Printf("Model name: %s\n", modelName)

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return RunFailedLoadingModel
	}

	var ocPaths []string
	metaPath := ""
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".oc"):
			ocPaths = append(ocPaths, filepath.Join(inputDir, name))
		case strings.HasSuffix(name, ".oc.metadata"):
			metaPath = filepath.Join(inputDir, name)
		}
	}
	sort.Strings(ocPaths)

	if len(ocPaths) == 0 {
		fmt.Fprintf(os.Stderr, "Error: No .oc files found in %s\n", inputDir)
		return RunFailedLoadingModel
	}
	fmt.Printf("Found %d .oc file(s)\n", len(ocPaths))

	var files []*oc.File
	parseOK := true
	for _, path := range ocPaths {
		fmt.Printf("  Parsing: %s\n", filepath.Base(path))
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  Error: Could not read %s\n", path)
			parseOK = false
			continue
		}
		file, errs := oc.Parse(string(data))
		if len(errs) > 0 {
			fmt.Fprintf(os.Stderr, "  Syntax errors in %s:\n", filepath.Base(path))
			for _, err := range errs {
				fmt.Fprintf(os.Stderr, "    %v\n", err)
			}
			parseOK = false
			continue
		}
		files = append(files, file)
	}
	if !parseOK {
		fmt.Fprintln(os.Stderr, "Error: Aborting due to parse errors")
		return RunFailedParsingOC
	}

	var content string
	warnings := false
	if metaPath != "" {
		fmt.Printf("Found metadata: %s\n", filepath.Base(metaPath))
		meta, err := metadata.ReadFile(metaPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not parse metadata file, using defaults: %v\n", err)
			warnings = true
		} else {
			fmt.Println("Reconstructing MDL from metadata (verbatim mode)...")
			content = mdl.WriteVerbatim(meta)
		}
	}
	if content == "" {
		fmt.Println("No metadata found, generating MDL with lifted systems...")
		model, diags := SynthesizeModel(files)
		for _, diag := range diags {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", diag)
			warnings = true
		}
		content = mdl.WriteSynthesized(model)
	}

	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Could not write %s\n", outputPath)
		return RunFailedWritingOutputFiles
	}
	fmt.Printf("Written: %s (%d bytes)\n", outputPath, len(content))

	if warnings {
		return RunSuccessfulButWithWarnings
	}
	return RunSuccessful
}

// SynthesizeModel lifts the full block graph of every element in the parsed
// OC files and assembles a model with an auto-generated root system.
func SynthesizeModel(files []*oc.File) (*ir.Model, []error) {
	model := ir.NewModel()
	var diags []error

	type namedElement struct {
		elem       *oc.Element
		components []oc.Component
	}
	var elements []namedElement
	for _, file := range files {
		for i := range file.Namespaces {
			ns := &file.Namespaces[i]
			for j := range ns.Elements {
				elements = append(elements, namedElement{&ns.Elements[j], ns.Components})
			}
		}
	}

	// Elements claim system_1..system_N; children of component calls are
	// numbered beyond.
	sysCounter := len(elements)
	var rootElems []mdl.RootElement

	for i, ne := range elements {
		systemID := "system_" + strconv.Itoa(i+1)

		result := lifter.LiftElement(ne.elem, ne.components, &sysCounter)
		diags = append(diags, result.Diagnostics...)

		sys := result.System
		sys.ID = systemID
		mdl.AutoLayout(sys)
		model.AddSystem(sys)

		for _, child := range result.Children {
			mdl.AutoLayout(child)
			model.AddSystem(child)
		}

		rootElems = append(rootElems, mdl.RootElement{
			Name:     ne.elem.Name,
			InCount:  len(oc.SectionVars(ne.elem.Sections, "input")),
			OutCount: len(oc.SectionVars(ne.elem.Sections, "output")),
			SystemID: systemID,
		})
	}

	model.AddSystem(mdl.NewRootSystem(rootElems))
	return model, diags
}

// Lint checks the given models and returns the number of failed rules.
func Lint(paths []string) int {
	totalPassed, totalFailed := 0, 0
	for _, path := range paths {
		var report *lint.Report
		_, model, result := loadModel(path)
		if result != RunSuccessful {
			report = &lint.Report{ModelName: filepath.Base(path)}
			report.Results = append(report.Results, lint.Result{
				Rule: "LOAD", Message: "Failed to load model file", Context: path,
			})
			report.Failed = 1
		} else {
			model.Name = stem(path)
			report = lint.Run(model, filepath.Base(path))
		}
		report.Print(os.Stdout)
		totalPassed += report.Passed
		totalFailed += report.Failed
	}
	if len(paths) > 1 {
		lint.PrintSummary(os.Stdout, totalPassed, totalFailed)
	}
	return totalFailed
}

// Dump prints the structure of a model, optionally filtered by subsystem
// name.
func Dump(path, filter string) Result {
	_, model, result := loadModel(path)
	if result != RunSuccessful {
		return result
	}
	root := model.RootSystem()
	if root == nil {
		fmt.Fprintln(os.Stderr, "No root system")
		return RunFailedLoadingModel
	}

	typeSet := make(map[string]bool)
	for _, id := range model.SystemIDs() {
		sys := model.System(id)
		for i := range sys.Blocks {
			typeSet[sys.Blocks[i].Type] = true
		}
	}
	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)

	fmt.Println("=== All Block Types in Model ===")
	for _, t := range types {
		fmt.Printf("  %s\n", t)
	}
	fmt.Println()

	fmt.Println("=== Top-level Subsystems ===")
	for _, blk := range root.Subsystems() {
		if filter != "" && !strings.Contains(blk.Name, filter) {
			continue
		}
		subsys := model.System(blk.SubsystemRef)
		if subsys == nil {
			continue
		}
		named := *subsys
		named.Name = blk.Name
		dumpSystem(model, &named, 0)
		fmt.Println()
	}
	return RunSuccessful
}

func loadModel(path string) (*mdl.Container, *ir.Model, Result) {
	container, err := mdl.LoadContainer(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, nil, RunFailedLoadingModel
	}
	model, errs := mdl.ReadModel(container)
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if len(model.Systems) == 0 {
		fmt.Fprintln(os.Stderr, "Error: Failed to parse MDL file")
		return nil, nil, RunFailedLoadingModel
	}
	return container, model, RunSuccessful
}

func stem(path string) string {
	base := filepath.Base(path)
	if dot := strings.LastIndex(base, "."); dot > 0 {
		return base[:dot]
	}
	return base
}

func libraryNameFor(modelName string) string {
	name := strings.ToLower(modelName)
	return strings.TrimSuffix(name, "_lib")
}

// sanitizeFilename keeps letters, digits, '_' and '-'; spaces become '_'.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_' || c == '-' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'):
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('_')
		}
	}
	return b.String()
}
