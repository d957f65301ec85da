// Package course defines the closed set of course types sold by the platform
// and the entitlement rules between them.
package course

import "fmt"

// Type identifies one of the sellable course offerings. It is stored as its
// string form in every table that references a course, and must be validated
// with Parse at every external boundary.
type Type string

const (
	Coparenting Type = "coparenting"
	Parenting   Type = "parenting"
	Bundle      Type = "bundle"
)

// LessonCount is the number of lessons in each single course.
const LessonCount = 12

// Parse validates a course type received from an external source.
func Parse(s string) (Type, error) {
	switch Type(s) {
	case Coparenting, Parenting, Bundle:
		return Type(s), nil
	}
	return "", fmt.Errorf("invalid course type %q", s)
}

// ParseSingle validates a course type that must be a single course, not the
// bundle. Used by progress, exam, and swap boundaries.
func ParseSingle(s string) (Type, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	if t == Bundle {
		return "", fmt.Errorf("course type %q is not a single course", s)
	}
	return t, nil
}

// Entitles reports whether a purchase of type t grants access to the single
// course want. The bundle entitles both single courses.
func (t Type) Entitles(want Type) bool {
	return t == want || t == Bundle
}

// Label returns the human-presentable course name used in emails and on
// certificates.
func (t Type) Label() string {
	switch t {
	case Coparenting:
		return "Co-Parenting Course"
	case Parenting:
		return "Parenting Course"
	case Bundle:
		return "Co-Parenting & Parenting Bundle"
	}
	return string(t)
}
