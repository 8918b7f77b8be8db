// Package mdl reads and writes the MDL container format: a MathWorks
// text-packaged OPC file holding XML block-diagram parts.
package mdl

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Container markers fixed by the MDL format.
const (
	packageBeginMarker = "__MWOPC_PACKAGE_BEGIN__"
	partBeginMarker    = "__MWOPC_PART_BEGIN__ "
)

// Container holds the parts of a loaded OPC package in file order.
type Container struct {
	order []string
	parts map[string]string
}

// LoadContainer reads an MDL file and splits it into parts.
func LoadContainer(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading container %s", path)
	}
	c, err := ParseContainer(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "container %s", path)
	}
	return c, nil
}

// ParseContainer splits MDL text into its parts. Part bodies run until the
// next part marker; trailing newlines and spaces are separator material, not
// content.
func ParseContainer(content string) (*Container, error) {
	if !strings.Contains(content, packageBeginMarker) {
		return nil, errors.New("malformed container: missing package marker")
	}
	c := &Container{parts: make(map[string]string)}

	pos := 0
	for {
		idx := strings.Index(content[pos:], partBeginMarker)
		if idx < 0 {
			break
		}
		pos += idx + len(partBeginMarker)

		lineEnd := strings.Index(content[pos:], "\n")
		if lineEnd < 0 {
			break
		}
		partLine := content[pos : pos+lineEnd]
		pos += lineEnd + 1

		partPath := partLine
		if space := strings.Index(partLine, " "); space >= 0 {
			partPath = partLine[:space]
		}
		partPath = strings.TrimRight(partPath, "\r ")

		next := strings.Index(content[pos:], strings.TrimRight(partBeginMarker, " "))
		var body string
		if next >= 0 {
			body = content[pos : pos+next]
		} else {
			body = content[pos:]
		}
		body = strings.TrimRight(body, "\n\r ")

		if _, ok := c.parts[partPath]; !ok {
			c.order = append(c.order, partPath)
		}
		c.parts[partPath] = body
	}

	if len(c.parts) == 0 {
		return nil, errors.New("malformed container: no part markers found")
	}
	return c, nil
}

// Part returns the content of the part at the given path.
func (c *Container) Part(path string) (string, bool) {
	content, ok := c.parts[path]
	return content, ok
}

// PartPaths returns every part path in original file order.
func (c *Container) PartPaths() []string {
	return append([]string(nil), c.order...)
}

// SystemPaths returns the paths of the system XML parts.
func (c *Container) SystemPaths() []string {
	var paths []string
	for _, path := range c.order {
		if strings.Contains(path, "/simulink/systems/system_") &&
			strings.HasSuffix(path, ".xml") &&
			!strings.Contains(path, ".xml.rels") {
			paths = append(paths, path)
		}
	}
	return paths
}

// RawParts returns a copy of the path-to-content map.
func (c *Container) RawParts() map[string]string {
	parts := make(map[string]string, len(c.parts))
	for path, content := range c.parts {
		parts[path] = content
	}
	return parts
}
