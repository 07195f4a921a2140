package provider

import (
	"fmt"
	"net/url"
	"strings"
)

// RepoRef identifies a GitHub repository and optionally a branch and a
// file or directory inside it.
type RepoRef struct {
	Owner  string
	Repo   string
	Branch string
	Path   string
}

// CloneURL returns the https clone URL. A non-empty token is embedded as
// basic auth credentials.
func (r RepoRef) CloneURL(token string) string {
	if token = strings.TrimSpace(token); token != "" {
		return fmt.Sprintf("https://x-access-token:%s@github.com/%s/%s.git", url.PathEscape(token), r.Owner, r.Repo)
	}
	return fmt.Sprintf("https://github.com/%s/%s.git", r.Owner, r.Repo)
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Repo
}

// ParseGitHubURL accepts https URLs (including /blob/<branch>/<path> and
// /tree/<branch> forms), the git@github.com: ssh form and bare owner/repo.
func ParseGitHubURL(raw string) (RepoRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RepoRef{}, fmt.Errorf("github url is empty")
	}

	if rest, ok := strings.CutPrefix(raw, "git@github.com:"); ok {
		return parseRepoPath(raw, strings.TrimSuffix(rest, ".git"))
	}

	if !strings.Contains(raw, "://") {
		if strings.HasPrefix(raw, "github.com/") {
			raw = "https://" + raw
		} else if strings.Count(raw, "/") == 1 && !strings.HasPrefix(raw, ".") {
			return parseRepoPath(raw, raw)
		} else {
			return RepoRef{}, fmt.Errorf("invalid github repo url %q", raw)
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return RepoRef{}, fmt.Errorf("invalid github url: %w", err)
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	if host != "github.com" {
		return RepoRef{}, fmt.Errorf("only github.com is supported, got %q", u.Host)
	}
	return parseRepoPath(raw, u.Path)
}

func parseRepoPath(raw, p string) (RepoRef, error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return RepoRef{}, fmt.Errorf("invalid github repo url %q", raw)
	}
	ref := RepoRef{Owner: parts[0], Repo: strings.TrimSuffix(parts[1], ".git")}
	if len(parts) >= 4 && (parts[2] == "blob" || parts[2] == "tree") {
		ref.Branch = parts[3]
		ref.Path = strings.Join(parts[4:], "/")
	}
	return ref, nil
}
