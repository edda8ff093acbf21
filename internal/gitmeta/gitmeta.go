// Package gitmeta inspects local version-control metadata. It is used only
// to auto-tag newly added memories; a directory without a repository yields
// no tags and no project inference.
package gitmeta

import (
	"os/exec"
	"path"
	"strings"
)

// Info describes the repository at a working directory.
type Info struct {
	IsRepo  bool
	Project string
	Branch  string
}

// Inspector reports repository metadata for a directory.
type Inspector interface {
	Inspect(dir string) Info
}

// GitInspector shells out to the git binary.
type GitInspector struct{}

// New returns an Inspector backed by the git CLI.
func New() GitInspector {
	return GitInspector{}
}

// Inspect returns repository metadata for dir. All failures degrade to an
// empty Info; this collaborator never blocks a write.
func (GitInspector) Inspect(dir string) Info {
	out, err := gitOutput(dir, "rev-parse", "--is-inside-work-tree")
	if err != nil || out != "true" {
		return Info{}
	}

	info := Info{IsRepo: true}
	if remote, err := gitOutput(dir, "remote", "get-url", "origin"); err == nil {
		info.Project = projectFromRemote(remote)
	}
	if branch, err := gitOutput(dir, "branch", "--show-current"); err == nil {
		info.Branch = branch
	}
	return info
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// projectFromRemote derives a project name from a remote URL:
// "git@github.com:acme/widget.git" and "https://github.com/acme/widget.git"
// both yield "widget".
func projectFromRemote(remote string) string {
	if remote == "" {
		return ""
	}
	name := remote
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	} else if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".git")
	return path.Base(name)
}
