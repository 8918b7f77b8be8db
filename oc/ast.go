// Package oc parses the OC textual format for real-time control elements.
// The parser accumulates errors and always returns a best-effort tree; the
// raw text of update bodies is preserved verbatim for the reverse lifter.
package oc

import "fmt"

// VarDecl is a single variable declaration inside a section.
type VarDecl struct {
	Type    string
	Name    string
	Default string
}

// Section is one input/output/state/config/memory block of declarations.
type Section struct {
	Kind string
	Vars []VarDecl
}

// UpdateBody carries the verbatim text of an update or operation body.
type UpdateBody struct {
	Raw string
}

// Element is the top-level unit of an OC file.
type Element struct {
	Name      string
	Frequency string
	Sections  []Section
	Update    UpdateBody
}

// Component is a reusable unit callable from element update bodies.
type Component struct {
	Name     string
	Sections []Section
	Update   UpdateBody
}

// Namespace groups elements and components.
type Namespace struct {
	Name       string
	Elements   []Element
	Components []Component
}

// File is a parsed OC source file.
type File struct {
	Namespaces []Namespace
}

// SectionVars returns the declarations of the first section with the given
// kind.
func SectionVars(sections []Section, kind string) []VarDecl {
	for i := range sections {
		if sections[i].Kind == kind {
			return sections[i].Vars
		}
	}
	return nil
}

// FindComponent returns the component with the given name, or nil.
func (f *File) FindComponent(name string) *Component {
	for i := range f.Namespaces {
		for j := range f.Namespaces[i].Components {
			if f.Namespaces[i].Components[j].Name == name {
				return &f.Namespaces[i].Components[j]
			}
		}
	}
	return nil
}

// ParseError is a positioned syntax error.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}
