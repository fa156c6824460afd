package chunker

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"support-copilot/internal/domain"
)

// LoadDocuments reads every .md and .txt file in the knowledge-base
// directory. The doc_id is the filename; the title is the filename with
// underscores spaced out and the extension stripped. Files are returned in
// name order so repeated builds produce the same chunk sequence.
func LoadDocuments(kbDir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(kbDir)
	if err != nil {
		return nil, err
	}

	var docs []domain.Document
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".md" && ext != ".txt" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(kbDir, name))
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.Document{
			DocID:   name,
			Title:   titleFromFilename(name),
			RawText: string(data),
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].DocID < docs[j].DocID })
	return docs, nil
}

func titleFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.ReplaceAll(base, "_", " ")
}
