package artifact

import (
	"os"
	"path/filepath"
	"time"
)

// FileInfo reports one artifact file on disk.
type FileInfo struct {
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
}

// Status summarizes the active version of an artifact root without
// decoding it.
type Status struct {
	Root        string     `json:"root"`
	Version     string     `json:"version,omitempty"`
	Complete    bool       `json:"complete"`
	Files       []FileInfo `json:"files,omitempty"`
	LastTrained time.Time  `json:"last_trained,omitempty"`
}

// Inspect reports which artifacts of the active version exist.
func Inspect(root string) Status {
	st := Status{Root: root}
	dir, err := CurrentDir(root)
	if err != nil {
		return st
	}
	st.Version = filepath.Base(dir)
	st.Complete = true
	for _, name := range []string{VectorizerFile, TermMatrixFile, SimilarityFile, ManifestFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			st.Complete = false
			continue
		}
		st.Files = append(st.Files, FileInfo{Name: name, Bytes: info.Size()})
		if info.ModTime().After(st.LastTrained) {
			st.LastTrained = info.ModTime()
		}
	}
	return st
}
