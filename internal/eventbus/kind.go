package eventbus

import "strings"

// Kind identifies a notification channel. S is the capability every
// subscriber of the kind implements, typically a callback interface.
//
// A Bus files subscribers by name and S. Two kinds with the same name and the
// same S address the same subscribers whatever their descriptions, while the
// same name with a different S never collides.
type Kind[S any] struct {
	name        string
	description string
}

// kindKey is the bucket key for a kind. The type parameter keeps equal names
// with different capabilities apart.
type kindKey[S any] struct {
	name string
}

// NewKind defines a message kind. It panics on an empty name, since kinds are
// usually declared as package-level variables and a bad one is a defect.
func NewKind[S any](name, description string) Kind[S] {
	if strings.TrimSpace(name) == "" {
		panic("eventbus: kind name cannot be empty")
	}
	return Kind[S]{name: name, description: description}
}

// Name returns the kind's identifier.
func (k Kind[S]) Name() string {
	return k.name
}

// Description returns the human-readable description.
func (k Kind[S]) Description() string {
	return k.description
}

// Module returns the name prefix before the first dot, e.g. "wargame" for
// "wargame.unit.damaged".
func (k Kind[S]) Module() string {
	return moduleOf(k.name)
}

// Info describes the kind without subscriber data.
func (k Kind[S]) Info() KindInfo {
	return KindInfo{Name: k.name, Module: k.Module(), Description: k.description}
}

func (k Kind[S]) key() kindKey[S] {
	if k.name == "" {
		panic("eventbus: use of zero Kind; create kinds with NewKind")
	}
	return kindKey[S]{name: k.name}
}

func moduleOf(name string) string {
	module, _, found := strings.Cut(name, ".")
	if !found {
		return ""
	}
	return module
}

// KindInfo describes a kind known to a Bus.
type KindInfo struct {
	Name        string `json:"name"`
	Module      string `json:"module"`
	Description string `json:"description"`
	Subscribers int    `json:"subscribers"`
}
