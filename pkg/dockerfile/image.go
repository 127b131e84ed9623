package dockerfile

import (
	"strings"

	"github.com/opencontainers/go-digest"
)

// ImageRef is a container image reference split into its components. Parsed
// is false when the reference cannot be decomposed, e.g. when it is a build
// argument like $BASE_IMAGE; Full is always preserved exactly as written.
type ImageRef struct {
	Full     string `json:"full"`
	Registry string `json:"registry,omitempty"`
	Name     string `json:"name,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Digest   string `json:"digest,omitempty"`
	Parsed   bool   `json:"parsed"`
}

// ParseImageRef splits an image reference of the form
// [registry/]name[:tag][@digest] into components. Variable references are
// returned unparsed.
func ParseImageRef(ref string) ImageRef {
	out := ImageRef{Full: ref}
	if ref == "" || strings.Contains(ref, "$") {
		return out
	}

	rest := ref
	if name, dg, ok := strings.Cut(rest, "@"); ok {
		out.Digest = dg
		rest = name
	}

	// A colon after the last slash separates the tag; earlier colons belong
	// to a registry port.
	if idx := strings.LastIndexByte(rest, ':'); idx > strings.LastIndexByte(rest, '/') {
		out.Tag = rest[idx+1:]
		rest = rest[:idx]
	}

	// The first path component is a registry only if it looks like a host:
	// contains a dot or port, or is the literal "localhost".
	if host, remainder, ok := strings.Cut(rest, "/"); ok {
		if strings.ContainsAny(host, ".:") || host == "localhost" {
			out.Registry = host
			rest = remainder
		}
	}

	if rest == "" {
		return out
	}
	out.Name = rest
	out.Parsed = true
	return out
}

// IsVariable reports whether the reference is an unexpanded build argument.
func (r ImageRef) IsVariable() bool {
	return strings.Contains(r.Full, "$")
}

// DigestPinned reports whether the reference carries a well-formed digest.
func (r ImageRef) DigestPinned() bool {
	if r.Digest == "" {
		return false
	}
	_, err := digest.Parse(r.Digest)
	return err == nil
}
