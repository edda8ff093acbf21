package gitmeta

import "testing"

func TestProjectFromRemote(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"https://github.com/acme/widget.git", "widget"},
		{"https://github.com/acme/widget", "widget"},
		{"git@github.com:acme/widget.git", "widget"},
		{"git@gitlab.example.com:team/sub/widget.git", "widget"},
		{"ssh://git@github.com/acme/widget.git", "widget"},
		{"widget.git", "widget"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			if got := projectFromRemote(tt.remote); got != tt.want {
				t.Errorf("projectFromRemote(%q) = %q, want %q", tt.remote, got, tt.want)
			}
		})
	}
}

func TestInspect_NonRepoDirectory(t *testing.T) {
	info := New().Inspect(t.TempDir())
	if info.IsRepo {
		t.Error("a bare temp directory must not report a repository")
	}
	if info.Project != "" || info.Branch != "" {
		t.Errorf("expected empty metadata, got %+v", info)
	}
}
