package github

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseSlug extracts owner and repository from a GitHub remote: an owner/repo
// shorthand, an https URL or an scp-style git@ address.
func ParseSlug(remote string) (owner, repo string, err error) {
	s := strings.TrimSpace(remote)
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")

	switch {
	case isShorthand(s):
		// already owner/repo
	case strings.HasPrefix(s, "git@"):
		idx := strings.Index(s, ":")
		if idx < 0 {
			return "", "", fmt.Errorf("unrecognized remote %q", remote)
		}
		s = s[idx+1:]
	default:
		u, perr := url.Parse(s)
		if perr != nil || u.Host == "" {
			return "", "", fmt.Errorf("unrecognized remote %q", remote)
		}
		s = strings.TrimPrefix(u.Path, "/")
	}

	if !isShorthand(s) {
		return "", "", fmt.Errorf("remote %q is not owner/repo", remote)
	}
	parts := strings.SplitN(s, "/", 2)
	return parts[0], parts[1], nil
}

// isShorthand returns true if path matches owner/repo.
func isShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 || strings.Count(path, "/") != 1 {
		return false
	}
	// a dot before the slash is a domain
	if strings.Contains(path[:slashIdx], ".") || strings.Contains(path, ":") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}
