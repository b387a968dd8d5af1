package models

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scope is the service identity a store session is acquired for
type Scope string

const (
	ScopeRead  Scope = "read"
	ScopeWrite Scope = "write"
)

// DefaultResourceType is assigned to resources created without an explicit type
const DefaultResourceType = "nt:unstructured"

// Content tree paths
const (
	ContentRoot = "/content"
	UserRoot    = "/content/user"
	AdminRoot   = "/content/admin"
)

// Resource is a single node of the content tree
type Resource struct {
	Path         string            `json:"path"`
	Name         string            `json:"name"`
	ResourceType string            `json:"resourceType"`
	Properties   map[string]string `json:"properties"`
}

// Get returns the property value or an empty string if the property is not set
func (r *Resource) Get(key string) string {
	if r == nil || r.Properties == nil {
		return ""
	}
	return r.Properties[key]
}

// ChildPath joins a parent path and a child name
func ChildPath(parent, name string) string {
	return strings.TrimSuffix(parent, "/") + "/" + name
}

// ParentPath returns the parent of path, "/" for top level nodes
func ParentPath(path string) string {
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return "/"
	}
	return path[:i]
}

// BaseName returns the last segment of path
func BaseName(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

// MaxNameLength is the longest accepted path segment in bytes
const MaxNameLength = 255

// IsValidName reports whether name can be used as a single path segment.
// Any printable UTF-8 text is accepted except the relative segments and the separator.
func IsValidName(name string) bool {
	if name == "" || name == "." || name == ".." || len(name) > MaxNameLength {
		return false
	}
	if !utf8.ValidString(name) {
		return false
	}
	for _, c := range name {
		if c == '/' || unicode.IsControl(c) {
			return false
		}
	}
	return true
}
