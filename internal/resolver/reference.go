// Package resolver parses `[[type:target#heading]]` backlink references and
// resolves them to content on disk, purely via the filesystem — it has no
// database dependency, matching the original implementation's Resolver.
package resolver

import (
	"regexp"
	"strings"

	"github.com/anticorrelator/lore/internal/errs"
)

// ReferenceType is one of the four reference kinds. "plan" is a deprecated
// alias for "work", normalized away by ParseReference.
type ReferenceType string

const (
	TypeKnowledge ReferenceType = "knowledge"
	TypeWork      ReferenceType = "work"
	TypeThread    ReferenceType = "thread"
)

// Reference is a parsed `[[type:target#heading]]` backlink.
type Reference struct {
	Type    ReferenceType
	Target  string
	Heading string // "" if absent
}

var referenceRE = regexp.MustCompile(`^\[\[(\w+):([^\]#]+?)(?:#([^\]]+))?\]\]$`)

// ParseReference parses a single `[[type:target[#heading]]]` reference.
func ParseReference(raw string) (Reference, error) {
	raw = strings.TrimSpace(raw)
	m := referenceRE.FindStringSubmatch(raw)
	if m == nil {
		return Reference{}, errs.New(errs.ErrCodeInvalidReference, "malformed reference: "+raw, nil)
	}

	rawType := strings.ToLower(m[1])
	if rawType == "plan" {
		rawType = "work"
	}

	switch ReferenceType(rawType) {
	case TypeKnowledge, TypeWork, TypeThread:
	default:
		return Reference{}, errs.New(errs.ErrCodeInvalidReference, "unknown reference type: "+m[1], nil)
	}

	return Reference{Type: ReferenceType(rawType), Target: strings.TrimSpace(m[2]), Heading: strings.TrimSpace(m[3])}, nil
}

// referenceFindRE finds every `[[...]]` reference occurrence within free text.
var referenceFindRE = regexp.MustCompile(`\[\[\w+:[^\]]+\]\]`)

// FindReferences returns every reference literal found in text, in order of appearance.
func FindReferences(text string) []string {
	return referenceFindRE.FindAllString(text, -1)
}
