// Package paths expands the folder placeholders that test script
// references may contain, so the same reference works on machines with
// different folder layouts.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Placeholder tokens recognised in script paths.
const (
	MyDocuments      = "[MyDocuments]"
	CommonDocuments  = "[CommonDocuments]"
	DesktopDirectory = "[DesktopDirectory]"
	ProgramFiles     = "[ProgramFiles]"
	ProgramFilesX86  = "[ProgramFilesX86]"
)

// Tokens lists every recognised placeholder.
var Tokens = []string{MyDocuments, CommonDocuments, DesktopDirectory, ProgramFiles, ProgramFilesX86}

// Folders maps a placeholder token to the folder it stands for.
// A token mapped to "" expands to the empty string.
type Folders map[string]string

// Resolver substitutes placeholder tokens in paths.
type Resolver struct {
	replacer *strings.Replacer
}

// NewResolver builds a Resolver for the given folders. Keys that are not
// recognised tokens are ignored.
func NewResolver(folders Folders) *Resolver {
	pairs := make([]string, 0, 2*len(Tokens))
	for _, tok := range Tokens {
		pairs = append(pairs, tok, folders[tok])
	}
	return &Resolver{replacer: strings.NewReplacer(pairs...)}
}

// Default returns a Resolver for the current machine.
func Default() *Resolver {
	return NewResolver(SystemFolders())
}

// Expand replaces every recognised token in path. Substitution is a single
// pass: text produced by a replacement is never scanned again. Unknown
// bracket sequences are left as they are.
func (r *Resolver) Expand(path string) string {
	return r.replacer.Replace(path)
}

// SystemFolders resolves the placeholder folders for the running OS.
func SystemFolders() Folders {
	home, _ := os.UserHomeDir()
	if runtime.GOOS == "windows" {
		return windowsFolders(home, os.Getenv)
	}
	f := Folders{}
	if home != "" {
		f[MyDocuments] = filepath.Join(home, "Documents")
		f[DesktopDirectory] = filepath.Join(home, "Desktop")
	}
	return f
}

func windowsFolders(home string, getenv func(string) string) Folders {
	f := Folders{
		ProgramFiles:    getenv("ProgramFiles"),
		ProgramFilesX86: getenv("ProgramFiles(x86)"),
	}
	if profile := getenv("USERPROFILE"); profile != "" {
		home = profile
	}
	if home != "" {
		f[MyDocuments] = filepath.Join(home, "Documents")
		f[DesktopDirectory] = filepath.Join(home, "Desktop")
	}
	if public := getenv("PUBLIC"); public != "" {
		f[CommonDocuments] = filepath.Join(public, "Documents")
	}
	// 32-bit Windows has no separate x86 folder.
	if f[ProgramFilesX86] == "" {
		f[ProgramFilesX86] = f[ProgramFiles]
	}
	return f
}
