package diagnostics

import (
	"errors"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/D-Fate/AudioToTextConverter/internal/domain"
)

// fakeFileInfo is a minimal os.FileInfo for injected stat results.
type fakeFileInfo struct {
	name string
	dir  bool
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return 0 }
func (f fakeFileInfo) Mode() fs.FileMode  { return 0 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return f.dir }
func (f fakeFileInfo) Sys() any           { return nil }

// fakeDirEntry is a minimal os.DirEntry for injected readDir results.
type fakeDirEntry struct {
	name string
	dir  bool
}

func (f fakeDirEntry) Name() string               { return f.name }
func (f fakeDirEntry) IsDir() bool                { return f.dir }
func (f fakeDirEntry) Type() fs.FileMode          { return 0 }
func (f fakeDirEntry) Info() (fs.FileInfo, error) { return fakeFileInfo{name: f.name, dir: f.dir}, nil }

// lookPathAll pretends every tool is installed.
func lookPathAll(name string) (string, error) {
	return "/usr/bin/" + name, nil
}

// itemByID finds a report item or fails the test.
func itemByID(t *testing.T, report Report, id string) Item {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("report has no item %q: %+v", id, report.Items)
	return Item{}
}

// TestCheckerAllPass checks a fully configured machine yields no failures.
func TestCheckerAllPass(t *testing.T) {
	checker := NewCheckerForTests(
		lookPathAll,
		func(string) (os.FileInfo, error) { return fakeFileInfo{name: "ggml-medium.bin"}, nil },
		nil,
	)

	report := checker.Run(domain.Settings{ModelPath: "/models/ggml-medium.bin"})
	if report.HasFailures {
		t.Fatalf("report has failures: %+v", report.Items)
	}
	if len(report.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(report.Items))
	}
}

// TestCheckerMissingTool checks an absent executable is reported with a
// hint and flips the aggregate flag.
func TestCheckerMissingTool(t *testing.T) {
	checker := NewCheckerForTests(
		func(name string) (string, error) {
			if name == "whisper.cpp" {
				return "", errors.New("not found")
			}
			return "/usr/bin/" + name, nil
		},
		func(string) (os.FileInfo, error) { return fakeFileInfo{}, nil },
		nil,
	)

	report := checker.Run(domain.Settings{ModelPath: "/models/m.bin"})
	if !report.HasFailures {
		t.Fatal("expected report failures")
	}

	item := itemByID(t, report, "tool_whisper.cpp")
	if item.Status != StatusFail {
		t.Fatalf("status = %s, want fail", item.Status)
	}
	if item.Hint == "" {
		t.Fatal("expected an install hint")
	}
}

// TestCheckerModelDirWithModels checks a directory holding a model file
// passes.
func TestCheckerModelDirWithModels(t *testing.T) {
	checker := NewCheckerForTests(
		lookPathAll,
		func(string) (os.FileInfo, error) { return fakeFileInfo{name: "models", dir: true}, nil },
		func(string) ([]os.DirEntry, error) {
			return []os.DirEntry{
				fakeDirEntry{name: "subdir", dir: true},
				fakeDirEntry{name: "ggml-medium.bin"},
			}, nil
		},
	)

	report := checker.Run(domain.Settings{ModelPath: "/models"})
	if item := itemByID(t, report, "model_path"); item.Status != StatusPass {
		t.Fatalf("model check = %+v, want pass", item)
	}
}

// TestCheckerEmptyModelDir checks a model directory without model files
// fails with the download hint.
func TestCheckerEmptyModelDir(t *testing.T) {
	checker := NewCheckerForTests(
		lookPathAll,
		func(string) (os.FileInfo, error) { return fakeFileInfo{name: "models", dir: true}, nil },
		func(string) ([]os.DirEntry, error) {
			return []os.DirEntry{fakeDirEntry{name: "readme.md"}}, nil
		},
	)

	report := checker.Run(domain.Settings{ModelPath: "/models"})
	item := itemByID(t, report, "model_path")
	if item.Status != StatusFail {
		t.Fatalf("model check = %+v, want fail", item)
	}
	if item.Hint == "" {
		t.Fatal("expected a download hint")
	}
}

// TestCheckerMissingModelPath checks a path that does not exist yet is a
// soft failure pointing at the first-start download.
func TestCheckerMissingModelPath(t *testing.T) {
	checker := NewCheckerForTests(
		lookPathAll,
		func(string) (os.FileInfo, error) { return nil, os.ErrNotExist },
		nil,
	)

	report := checker.Run(domain.Settings{ModelPath: "/models"})
	if item := itemByID(t, report, "model_path"); item.Status != StatusFail {
		t.Fatalf("model check = %+v, want fail", item)
	}
}

// TestCheckerUnconfiguredModelPath checks an empty path is rejected.
func TestCheckerUnconfiguredModelPath(t *testing.T) {
	checker := NewCheckerForTests(lookPathAll, nil, nil)

	report := checker.Run(domain.Settings{})
	if item := itemByID(t, report, "model_path"); item.Status != StatusFail {
		t.Fatalf("model check = %+v, want fail", item)
	}
}
