package filediffs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// folderExcludePatterns are version control directories that are never listed.
var folderExcludePatterns = []string{".svn", ".git", ".hg", "CVS"}

// fileExcludePatterns are build outputs and binary assets that are never listed.
var fileExcludePatterns = []string{
	"*.pyc", "*.pyo", "*.exe", "*.dll", "*.obj", "*.o", "*.a", "*.lib",
	"*.so", "*.dylib", "*.ncb", "*.sdf", "*.suo", "*.pdb", "*.idb",
	".DS_Store", "*.class", "*.psd", "*.db",
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// FindFiles lists the files below roots, skipping excluded directories and
// files at any depth. Symlinked directories are followed, each target at most
// once per root. Roots that are not directories are ignored.
func FindFiles(roots []string) ([]string, error) {
	var files []string
	for _, root := range roots {
		resolved, err := filepath.EvalSymlinks(root)
		if err != nil {
			continue
		}
		info, err := os.Stat(resolved)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := walkFiles(filepath.Clean(root), resolved, map[string]bool{}, &files); err != nil {
			return nil, fmt.Errorf("failed to list files in %s: %w", root, err)
		}
	}
	return files, nil
}

// walkFiles walks the directory resolved and appends its files as paths below
// shown, the name the directory was reached by.
func walkFiles(shown, resolved string, visited map[string]bool, files *[]string) error {
	if visited[resolved] {
		return nil
	}
	visited[resolved] = true
	return filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(resolved, path)
		if err != nil {
			return err
		}
		name := filepath.Join(shown, rel)
		if d.Type()&fs.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				// dangling link
				return nil
			}
			info, err := os.Stat(target)
			if err != nil {
				return nil
			}
			if info.IsDir() {
				if matchesAny(d.Name(), folderExcludePatterns) {
					return nil
				}
				return walkFiles(name, target, visited, files)
			}
			if info.Mode().IsRegular() && !matchesAny(d.Name(), fileExcludePatterns) {
				*files = append(*files, name)
			}
			return nil
		}
		if d.IsDir() {
			if path != resolved && matchesAny(d.Name(), folderExcludePatterns) {
				return filepath.SkipDir
			}
			return nil
		}
		if !matchesAny(d.Name(), fileExcludePatterns) {
			*files = append(*files, name)
		}
		return nil
	})
}

// CommonPrefix returns the longest character-wise prefix shared by all paths.
// The result need not end on a path separator.
func CommonPrefix(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	common := paths[0]
	for _, p := range paths[1:] {
		n := min(len(common), len(p))
		for common[:n] != p[:n] {
			n--
		}
		common = common[:n]
	}
	return common
}

// Choice is an entry the user can pick: a display label and what it stands for.
type Choice struct {
	Label string
	Path  string
	Text  string
}

// ProjectChoices lists the files below roots except current. Labels have the
// roots' common prefix stripped; Path keeps the full path.
func ProjectChoices(roots []string, current string) ([]Choice, error) {
	files, err := FindFiles(roots)
	if err != nil {
		return nil, err
	}
	prefix := CommonPrefix(roots)
	var choices []Choice
	for _, f := range files {
		if f == current {
			continue
		}
		choices = append(choices, Choice{Label: f[min(len(prefix), len(f)):], Path: f})
	}
	return choices, nil
}
