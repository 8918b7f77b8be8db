package mdl

import (
	"encoding/xml"
	"strings"

	"github.com/pkg/errors"
)

// Attr is a single XML attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is a generic XML element tree, sufficient for the MDL parts. No
// namespace or DTD awareness is needed or attempted.
type Element struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []Element
}

// Attr returns the value of the named attribute, or "".
func (e *Element) Attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

// Child returns the first child with the given tag, or nil.
func (e *Element) Child(tag string) *Element {
	for i := range e.Children {
		if e.Children[i].Tag == tag {
			return &e.Children[i]
		}
	}
	return nil
}

// ChildrenByTag returns every child with the given tag.
func (e *Element) ChildrenByTag(tag string) []*Element {
	var result []*Element
	for i := range e.Children {
		if e.Children[i].Tag == tag {
			result = append(result, &e.Children[i])
		}
	}
	return result
}

// ChildText returns the text of the first child with the given tag, or "".
func (e *Element) ChildText(tag string) string {
	if c := e.Child(tag); c != nil {
		return c.Text
	}
	return ""
}

// ParseXML reads an XML document into an element tree. Entity references
// are decoded by the tokenizer.
func ParseXML(content string) (*Element, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "malformed xml")
		}
		if start, ok := tok.(xml.StartElement); ok {
			elem, err := parseElement(dec, start)
			if err != nil {
				return nil, err
			}
			return elem, nil
		}
	}
}

func parseElement(dec *xml.Decoder, start xml.StartElement) (*Element, error) {
	elem := &Element{Tag: start.Name.Local}
	for _, a := range start.Attr {
		elem.Attrs = append(elem.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
	}

	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrapf(err, "malformed xml in <%s>", elem.Tag)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(dec, t)
			if err != nil {
				return nil, err
			}
			elem.Children = append(elem.Children, *child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			elem.Text = strings.TrimSpace(text.String())
			return elem, nil
		}
	}
}
