package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/da0x/oc/ir"
)

// sourceLibrary returns the library a Reference block links to, read from
// its SourceBlock parameter ("library_name/block_name").
func sourceLibrary(blk *ir.Block) string {
	src, ok := blk.Param("SourceBlock")
	if !ok {
		return ""
	}
	if slash := strings.Index(src, "/"); slash >= 0 {
		return src[:slash]
	}
	return ""
}

// LIB-001: element names should represent their type.
func checkLibraryNaming(model *ir.Model, report *Report) {
	const rule = "LIB-001"
	root := model.RootSystem()
	if root == nil {
		return
	}
	for _, blk := range root.Subsystems() {
		if len(blk.Name) > 2 {
			report.addPass(rule, "Element has descriptive name", blk.Name)
		} else {
			report.addFail(rule, "Element has non-descriptive name", blk.Name)
		}
	}
}

// LIB-002: elements should not link to other element libraries.
func checkLibraryNoExternalLinks(model *ir.Model, report *Report) {
	const rule = "LIB-002"
	allowedLibs := map[string]bool{
		"simulink": true, "simulink_extras": true, "simscape": true, "stateflow": true,
	}

	for _, id := range model.SystemIDs() {
		if id == ir.RootSystemID {
			continue
		}
		sys := model.System(id)

		linkedLib := ""
		for i := range sys.Blocks {
			lib := sourceLibrary(&sys.Blocks[i])
			if lib != "" && lib != model.Name && !allowedLibs[lib] {
				linkedLib = lib
				break
			}
		}

		name := sys.Name
		if name == "" {
			name = id
		}
		if linkedLib == "" {
			report.addPass(rule, "No external element links", name)
		} else {
			report.addFail(rule, "Links to external library: "+linkedLib, name)
		}
	}
}

// LIB-003: elements should be masked with configuration parameters.
func checkLibraryMasked(model *ir.Model, report *Report) {
	const rule = "LIB-003"
	root := model.RootSystem()
	if root == nil {
		return
	}
	for _, blk := range root.Subsystems() {
		if len(blk.MaskParameters) > 0 {
			report.addPass(rule,
				fmt.Sprintf("Element is masked (%d params)", len(blk.MaskParameters)), blk.Name)
		} else {
			report.addFail(rule, "Element is not masked (no configuration parameters)", blk.Name)
		}
	}
}

// LIB-004: internal subsystems should be helpers, not elements.
func checkLibraryHelperSubsystems(model *ir.Model, report *Report) {
	const rule = "LIB-004"

	for _, id := range model.SystemIDs() {
		if id == ir.RootSystemID {
			continue
		}
		sys := model.System(id)

		name := sys.Name
		if name == "" {
			name = id
		}
		helperCount := 0
		problemSubsystem := ""
		for _, blk := range sys.Subsystems() {
			helperCount++
			// Many mask parameters suggest a full element, not a helper.
			if len(blk.MaskParameters) > 3 {
				problemSubsystem = blk.Name
			}
		}

		switch {
		case problemSubsystem != "":
			report.addFail(rule, "Contains element-like subsystem: "+problemSubsystem, name)
		case helperCount > 0:
			report.addPass(rule, fmt.Sprintf("Has %d helper subsystem(s)", helperCount), name)
		default:
			report.addPass(rule, "No subsystems (flat structure)", name)
		}
	}
}

// APP-001: an app should link elements from libraries.
func checkAppLibraryLinks(model *ir.Model, report *Report) {
	const rule = "APP-001"
	root := model.RootSystem()
	if root == nil {
		report.addFail(rule, "No root system found", "")
		return
	}

	libsUsed := make(map[string]bool)
	for i := range root.Blocks {
		if lib := sourceLibrary(&root.Blocks[i]); lib != "" {
			libsUsed[lib] = true
		}
	}

	if len(libsUsed) > 0 {
		libs := make([]string, 0, len(libsUsed))
		for lib := range libsUsed {
			libs = append(libs, lib)
		}
		sort.Strings(libs)
		report.addPass(rule, "Uses element libraries: "+strings.Join(libs, ", "), "")
	} else {
		report.addFail(rule, "No library links found - app should use element libraries", "")
	}
}

// APP-002: library links should be enforced, not disabled or broken.
func checkAppLinksEnforced(model *ir.Model, report *Report) {
	const rule = "APP-002"
	root := model.RootSystem()
	if root == nil {
		return
	}
	for i := range root.Blocks {
		blk := &root.Blocks[i]
		lib := sourceLibrary(blk)
		if lib == "" {
			continue
		}
		linkStatus, _ := blk.Param("LinkStatus")
		if linkStatus == "inactive" || linkStatus == "none" {
			report.addFail(rule, "Link is broken/disabled", blk.Name+" -> "+lib)
		} else {
			report.addPass(rule, "Link is active", blk.Name+" -> "+lib)
		}
	}
}

// APP-003: an app's top level should only contain elements and wiring.
func checkAppNoLooseLogic(model *ir.Model, report *Report) {
	const rule = "APP-003"
	root := model.RootSystem()
	if root == nil {
		return
	}

	allowedTypes := map[string]bool{
		ir.Inport: true, ir.Outport: true, ir.SubSystem: true,
		"From": true, "Goto": true, "Terminator": true, "Ground": true,
		ir.Reference: true,
	}

	foundLoose := false
	for i := range root.Blocks {
		blk := &root.Blocks[i]
		if sourceLibrary(blk) != "" {
			continue
		}
		if allowedTypes[blk.Type] {
			continue
		}
		report.addFail(rule, "Loose logic block found: "+blk.Type, blk.Name)
		foundLoose = true
	}
	if !foundLoose {
		report.addPass(rule, "No loose logic blocks at top level", "")
	}
}

// APP-004: an app should have connections between its elements.
func checkAppConnections(model *ir.Model, report *Report) {
	const rule = "APP-004"
	root := model.RootSystem()
	if root == nil {
		return
	}
	if n := len(root.Connections); n > 0 {
		report.addPass(rule, fmt.Sprintf("Has %d connection(s)", n), "")
	} else {
		report.addFail(rule, "No connections found between elements", "")
	}
}
