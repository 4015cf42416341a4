package bookmark

import (
	"net/url"
	"strings"
)

// URIScheme prefixes every addressable group identifier.
const URIScheme = "bm"

const (
	authorityGlobal    = "global-bookmark"
	authorityWorkspace = "workspace-bookmark"
	authorityFavorites = "favorites"
	authorityRecents   = "recently-used-external-files"
)

func uriPrefix(authority string) string {
	return URIScheme + "://" + authority + "/"
}

func keyURI(prefix, key string) string {
	return prefix + url.PathEscape(RegulateKey(key))
}

func keyFromURI(prefix, uri string) (string, bool) {
	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok || rest == "" {
		return "", false
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return key, true
}
