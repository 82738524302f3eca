package manifest

import "regexp"

// Matches "require('x')" and "require(\"x\")". Literals containing escapes
// or line breaks are not references.
var requireCall = regexp.MustCompile(`\brequire\s*\(\s*(?:'([^'\\\r\n]*)'|"([^"\\\r\n]*)")`)

type reference struct {
	name string

	// Byte offset of the opening quote
	offset int
}

// Returns the references in source order.
func scanReferences(contents string) []reference {
	var refs []reference
	for _, match := range requireCall.FindAllStringSubmatchIndex(contents, -1) {
		start, end := match[2], match[3]
		if start < 0 {
			start, end = match[4], match[5]
		}
		refs = append(refs, reference{name: contents[start:end], offset: start - 1})
	}
	return refs
}
