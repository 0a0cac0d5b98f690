package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"policyrag/internal/models"
	"policyrag/internal/util"
)

// Store is the immutable in-memory pairing of chunk records with their
// precomputed embedding vectors. It is built once at startup and only read
// afterwards, so concurrent queries need no locking.
type Store struct {
	chunks  []models.Chunk
	vectors [][]float32
	dim     int
}

// NewStore validates that chunks and vectors line up and freezes them into a
// read-only store. Count or dimensionality mismatches fail with
// util.ErrCorpusMismatch.
func NewStore(chunks []models.Chunk, vectors [][]float32) (*Store, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d chunks vs %d vectors", util.ErrCorpusMismatch, len(chunks), len(vectors))
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	if len(vectors) > 0 && dim == 0 {
		return nil, fmt.Errorf("%w: vectors are zero-dimensional", util.ErrCorpusMismatch)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", util.ErrCorpusMismatch, i, len(v), dim)
		}
	}
	return &Store{chunks: chunks, vectors: vectors, dim: dim}, nil
}

// Load reads the chunk records and the embedding matrix from disk. The
// matrix may be an NPY file (the format the offline embedding job writes) or
// a JSON array of float rows; the extension decides.
func Load(chunksPath, vectorsPath string) (*Store, error) {
	chunksData, err := os.ReadFile(chunksPath)
	if err != nil {
		return nil, fmt.Errorf("read chunks file: %w", err)
	}
	var chunks []models.Chunk
	if err := json.Unmarshal(chunksData, &chunks); err != nil {
		return nil, fmt.Errorf("decode chunks file %s: %w", chunksPath, err)
	}

	vectors, err := loadVectors(vectorsPath)
	if err != nil {
		return nil, err
	}
	return NewStore(chunks, vectors)
}

func loadVectors(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open embeddings file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".npy":
		vectors, err := ReadMatrix(f)
		if err != nil {
			return nil, fmt.Errorf("decode embeddings file %s: %w", path, err)
		}
		return vectors, nil
	case ".json":
		var vectors [][]float32
		if err := json.NewDecoder(f).Decode(&vectors); err != nil {
			return nil, fmt.Errorf("decode embeddings file %s: %w", path, err)
		}
		return vectors, nil
	default:
		return nil, fmt.Errorf("unsupported embeddings format %q (want .npy or .json)", ext)
	}
}

func (s *Store) Size() int {
	return len(s.chunks)
}

func (s *Store) ChunkAt(i int) models.Chunk {
	return s.chunks[i]
}

func (s *Store) VectorAt(i int) []float32 {
	return s.vectors[i]
}

// Dimension is the shared vector dimensionality, 0 for an empty corpus.
func (s *Store) Dimension() int {
	return s.dim
}
