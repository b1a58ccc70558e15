package fsutil

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestCleanRelPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "empty", input: "", want: ""},
		{name: "dot", input: ".", want: ""},
		{name: "plain file", input: "x.png", want: "x.png"},
		{name: "nested", input: "batch-0001/x.png", want: "batch-0001/x.png"},
		{name: "redundant slashes", input: "batch-0001//x.png", want: "batch-0001/x.png"},
		{name: "backslashes", input: "batch-0001\\x.png", want: "batch-0001/x.png"},
		{name: "inner dotdot resolving inside", input: "batch-0001/../x.png", want: "x.png"},
		{name: "traversal", input: "../../etc/passwd", wantErr: true},
		{name: "bare dotdot", input: "..", wantErr: true},
		{name: "absolute", input: "/etc/passwd", wantErr: true},
		{name: "nul byte", input: "a\x00b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanRelPath(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPath) {
					t.Fatalf("expected ErrInvalidPath, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CleanRelPath(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("CleanRelPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestJoinWithinRoot(t *testing.T) {
	root := t.TempDir()

	abs, err := JoinWithinRoot(root, "batch-0001/x.png")
	if err != nil {
		t.Fatalf("JoinWithinRoot error: %v", err)
	}
	want := filepath.Join(root, "batch-0001", "x.png")
	if abs != want {
		t.Errorf("expected %q, got %q", want, abs)
	}

	if _, err := JoinWithinRoot(root, "../../etc/passwd"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath for traversal, got %v", err)
	}
	if _, err := JoinWithinRoot(root, "/etc/passwd"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath for absolute path, got %v", err)
	}

	abs, err = JoinWithinRoot(root, "")
	if err != nil {
		t.Fatalf("JoinWithinRoot(root, \"\") error: %v", err)
	}
	if abs != filepath.Clean(root) {
		t.Errorf("expected root %q for empty rel, got %q", root, abs)
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "x.png", want: "x.png"},
		{input: "batch-0001/x.png", want: "x.png"},
		{input: "../../x.png", want: "x.png"},
		{input: "a\\b\\x.png", want: "x.png"},
		{input: "", want: ""},
	}
	for _, tt := range tests {
		if got := BaseName(tt.input); got != tt.want {
			t.Errorf("BaseName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
