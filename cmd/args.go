package cmd

import (
	"strings"

	"github.com/mattsolo1/grove-bookmarks/pkg/bookmark"
	"github.com/mattsolo1/grove-bookmarks/pkg/pathref"
	"github.com/mattsolo1/grove-bookmarks/pkg/service"
)

func scopeOf(workspace bool) bookmark.Scope {
	if workspace {
		return bookmark.Workspace
	}
	return bookmark.Global
}

// groupURI accepts either a group URI or a plain key looked up in the chosen scope.
func groupURI(s *service.Service, arg string, workspace bool) string {
	if strings.HasPrefix(arg, bookmark.URIScheme+"://") {
		return arg
	}
	return s.GroupURI(scopeOf(workspace), arg)
}

func parseRef(arg string) (pathref.Ref, error) {
	ref, err := pathref.Parse(arg)
	if err != nil {
		return pathref.Ref{}, &service.ValidationError{Field: "path", Message: err.Error()}
	}
	return ref, nil
}

func parseRefs(args []string) ([]pathref.Ref, error) {
	refs := make([]pathref.Ref, 0, len(args))
	for _, arg := range args {
		ref, err := parseRef(arg)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
