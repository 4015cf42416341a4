package pathref

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// SchemeFile is the scheme of references that point into the local filesystem.
const SchemeFile = "file"

// Ref identifies a filesystem location. Two refs are the same location iff their
// serialized forms are equal.
type Ref struct {
	Scheme string
	Host   string
	Path   string
}

// Removed is the successor passed to rename propagation when a location no longer exists.
var Removed = Ref{}

// FromPath builds a file reference from a local path, made absolute and cleaned.
func FromPath(p string) (Ref, error) {
	if strings.TrimSpace(p) == "" {
		return Ref{}, fmt.Errorf("empty path")
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return Ref{}, fmt.Errorf("resolve %s: %w", p, err)
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return Ref{Scheme: SchemeFile, Path: slashed}, nil
}

// Parse accepts either a serialized reference (scheme://...) or a plain local path.
func Parse(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, fmt.Errorf("empty reference")
	}
	if !strings.Contains(s, "://") {
		return FromPath(s)
	}
	u, err := url.Parse(s)
	if err != nil {
		return Ref{}, fmt.Errorf("parse reference %q: %w", s, err)
	}
	if u.Scheme == "" {
		return Ref{}, fmt.Errorf("reference %q has no scheme", s)
	}
	path := u.Path
	if u.Opaque != "" {
		path = u.Opaque
	}
	return Ref{Scheme: u.Scheme, Host: u.Host, Path: path}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Ref {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the serialized form.
func (r Ref) String() string {
	if r.IsZero() {
		return ""
	}
	u := url.URL{Scheme: r.Scheme, Host: r.Host, Path: r.Path}
	return u.String()
}

// IsZero reports whether r is the empty reference.
func (r Ref) IsZero() bool {
	return r.Scheme == "" && r.Host == "" && r.Path == ""
}

// Equal compares serialized forms.
func (r Ref) Equal(other Ref) bool {
	return r.String() == other.String()
}

// IsFile reports whether r points into the local filesystem.
func (r Ref) IsFile() bool {
	return r.Scheme == SchemeFile && r.Host == ""
}

// FsPath returns the local filesystem path for file references.
func (r Ref) FsPath() string {
	p := r.Path
	// "/C:/x" -> "C:/x"
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

// Name is the terminal path segment.
func (r Ref) Name() string {
	return StripDirectory(r.Path)
}

// Dir is the path with its terminal segment removed, trailing separator kept.
func (r Ref) Dir() string {
	return StripFileName(r.Path)
}

// Join returns the reference of a child named name.
func (r Ref) Join(name string) Ref {
	joined := strings.TrimSuffix(r.Path, "/") + "/" + strings.Trim(filepath.ToSlash(name), "/")
	return Ref{Scheme: r.Scheme, Host: r.Host, Path: joined}
}

// Parent returns the containing folder's reference.
func (r Ref) Parent() Ref {
	dir := strings.TrimSuffix(r.Dir(), "/")
	if dir == "" {
		dir = "/"
	}
	return Ref{Scheme: r.Scheme, Host: r.Host, Path: dir}
}

// Contains reports whether other is r itself or lies beneath it.
func (r Ref) Contains(other Ref) bool {
	return strings.HasPrefix(withSlash(other.String()), withSlash(r.String()))
}

// MarshalText implements encoding.TextMarshaler.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ref) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Compare orders refs by their containing directory, then by serialized form.
func Compare(a, b Ref) int {
	if c := strings.Compare(a.Dir(), b.Dir()); c != 0 {
		return c
	}
	return strings.Compare(a.String(), b.String())
}

// Sort orders refs in place with Compare.
func Sort(refs []Ref) {
	slices.SortStableFunc(refs, Compare)
}

// Dedup drops later duplicates, keeping first occurrences in order.
func Dedup(refs []Ref) []Ref {
	seen := make(map[string]struct{}, len(refs))
	out := make([]Ref, 0, len(refs))
	for _, r := range refs {
		key := r.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Index returns the position of target in refs, or -1.
func Index(refs []Ref, target Ref) int {
	key := target.String()
	return slices.IndexFunc(refs, func(r Ref) bool { return r.String() == key })
}

// Without returns refs minus every occurrence of target.
func Without(refs []Ref, target Ref) []Ref {
	key := target.String()
	out := make([]Ref, 0, len(refs))
	for _, r := range refs {
		if r.String() != key {
			out = append(out, r)
		}
	}
	return out
}

// StripDirectory returns the last segment of p, accepting both separators.
func StripDirectory(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// StripFileName returns p without its last segment.
func StripFileName(p string) string {
	return p[:len(p)-len(StripDirectory(p))]
}

func withSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
