package index

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"support-copilot/internal/domain"
)

// The index is persisted as two co-located artifacts: the similarity
// structure (gob) and the human-inspectable chunk metadata list (JSON).
// Both must always be replaced together; a rebuild that updates only one
// corrupts the position invariant.
const (
	vectorsArtifact = "kb_vectors.gob"
	chunksArtifact  = "kb_chunks.json"
)

type vectorsFile struct {
	Dimension int
	Vectors   [][]float32
}

// Persist writes both artifacts into dir. Each file is written to a temp
// path and renamed into place, so a failed call never leaves a torn artifact
// and retrying the same call is safe.
func (ix *Index) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	gobPath := filepath.Join(dir, vectorsArtifact)
	if err := writeAtomic(gobPath, func(f *os.File) error {
		return gob.NewEncoder(f).Encode(vectorsFile{Dimension: ix.dimension, Vectors: ix.vectors})
	}); err != nil {
		return fmt.Errorf("writing %s: %w", vectorsArtifact, err)
	}

	jsonPath := filepath.Join(dir, chunksArtifact)
	if err := writeAtomic(jsonPath, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(ix.chunks)
	}); err != nil {
		return fmt.Errorf("writing %s: %w", chunksArtifact, err)
	}

	return nil
}

// Load reads both artifacts from dir. A mismatch between the vector count
// and the metadata list, or one artifact present without the other, is
// ErrIndexCorrupt. Both absent is a plain not-found error.
func Load(dir string) (*Index, error) {
	gobPath := filepath.Join(dir, vectorsArtifact)
	jsonPath := filepath.Join(dir, chunksArtifact)

	_, gobErr := os.Stat(gobPath)
	_, jsonErr := os.Stat(jsonPath)
	gobMissing := errors.Is(gobErr, os.ErrNotExist)
	jsonMissing := errors.Is(jsonErr, os.ErrNotExist)
	switch {
	case gobMissing && jsonMissing:
		return nil, fmt.Errorf("no index artifacts in %s: %w", dir, os.ErrNotExist)
	case gobMissing != jsonMissing:
		return nil, fmt.Errorf("%w: exactly one of %s and %s is present in %s",
			ErrIndexCorrupt, vectorsArtifact, chunksArtifact, dir)
	}

	gobFile, err := os.Open(gobPath)
	if err != nil {
		return nil, err
	}
	defer gobFile.Close()

	var vf vectorsFile
	if err := gob.NewDecoder(gobFile).Decode(&vf); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrIndexCorrupt, vectorsArtifact, err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var chunks []domain.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrIndexCorrupt, chunksArtifact, err)
	}

	if len(vf.Vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: %d vectors but %d chunk entries",
			ErrIndexCorrupt, len(vf.Vectors), len(chunks))
	}
	for i, v := range vf.Vectors {
		if len(v) != vf.Dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d",
				ErrIndexCorrupt, i, len(v), vf.Dimension)
		}
	}

	return &Index{dimension: vf.Dimension, vectors: vf.Vectors, chunks: chunks}, nil
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.Create(path + ".tmp")
	if err != nil {
		return err
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
