package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"policyrag/internal/config"
	"policyrag/internal/corpus"
	"policyrag/internal/models"
	"policyrag/internal/observability"
	"policyrag/internal/providers"
	"policyrag/internal/retrieval"
	"policyrag/internal/util"
)

// embedtool is the offline embedding job: it turns a directory of PDFs into
// the chunks.json + embeddings.npy artifact pair the API server loads at
// startup.
func main() {
	inDir := flag.String("in", "./data/pdfs", "directory of source PDFs")
	chunksOut := flag.String("chunks", "", "chunk records output path (default from config)")
	embeddingsOut := flag.String("embeddings", "", "embedding matrix output path (default from config)")
	flag.Parse()

	_ = godotenv.Load(".env")
	cfg := config.Load()
	if *chunksOut == "" {
		*chunksOut = cfg.ChunksFile
	}
	if *embeddingsOut == "" {
		*embeddingsOut = cfg.EmbeddingsFile
	}

	log, err := observability.NewLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	pm, err := providers.NewManager(cfg)
	if err != nil {
		log.Fatal("build providers", zap.Error(err))
	}

	chunks, err := collectChunks(*inDir, cfg, log)
	if err != nil {
		log.Fatal("collect chunks", zap.Error(err))
	}
	if len(chunks) == 0 {
		log.Fatal("no chunks produced", zap.String("in", *inDir))
	}

	vectors, err := embedChunks(context.Background(), pm.Embedder(), chunks, cfg, log)
	if err != nil {
		log.Fatal("embed chunks", zap.Error(err))
	}

	// Validates the count/dimension pairing before anything hits disk.
	store, err := corpus.NewStore(chunks, vectors)
	if err != nil {
		log.Fatal("validate corpus", zap.Error(err))
	}

	if err := writeArtifacts(*chunksOut, *embeddingsOut, chunks, vectors); err != nil {
		log.Fatal("write artifacts", zap.Error(err))
	}
	log.Info("corpus artifacts written",
		zap.String("chunks", *chunksOut),
		zap.String("embeddings", *embeddingsOut),
		zap.Int("count", store.Size()),
		zap.Int("dimension", store.Dimension()))
}

func collectChunks(dir string, cfg config.Config, log *zap.Logger) ([]models.Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var chunks []models.Chunk
	seen := map[string]string{}
	for _, name := range names {
		path := filepath.Join(dir, name)

		digest, err := fileDigest(path)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[digest]; ok {
			log.Warn("skipping duplicate PDF", zap.String("file", name), zap.String("same_as", prev))
			continue
		}
		seen[digest] = name

		fileChunks, err := chunkPDF(path, name, cfg)
		if err != nil {
			log.Warn("skipping unreadable PDF", zap.String("file", name), zap.Error(err))
			continue
		}
		log.Info("chunked PDF", zap.String("file", name), zap.Int("chunks", len(fileChunks)))
		chunks = append(chunks, fileChunks...)
	}
	return chunks, nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return util.SHA256HexFromReader(f)
}

// chunkPDF extracts text page by page so every chunk record keeps the page
// it came from.
func chunkPDF(path, name string, cfg config.Config) ([]models.Chunk, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []models.Chunk
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = util.SanitizeText(text)
		if text == "" {
			continue
		}
		for _, part := range util.ChunkText(text, cfg.ChunkSize, cfg.ChunkOverlap) {
			p := pageNum
			chunks = append(chunks, models.Chunk{
				Text:           part,
				Page:           &p,
				SourceDocument: name,
			})
		}
	}
	if len(chunks) == 0 {
		return nil, util.ErrNoExtractableText
	}
	return chunks, nil
}

func embedChunks(ctx context.Context, embedder providers.EmbeddingProvider, chunks []models.Chunk, cfg config.Config, log *zap.Logger) ([][]float32, error) {
	batchSize := cfg.EmbedBatchSize
	if batchSize < 1 {
		batchSize = 32
	}
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		inputs := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			inputs = append(inputs, c.Text)
		}
		batch, info, err := embedder.Embed(ctx, providers.EmbedRequest{
			Operation: "corpus_embed",
			Inputs:    inputs,
			Dimension: cfg.EmbedDim,
		})
		if err != nil {
			return nil, err
		}
		// Ranking assumes unit-norm vectors; normalize here rather than
		// trusting every backend.
		for _, v := range batch {
			vectors = append(vectors, retrieval.Normalize(v))
		}
		log.Info("embedded batch",
			zap.Int("done", len(vectors)),
			zap.Int("total", len(chunks)),
			zap.String("provider", info.Name),
			zap.String("model", info.Model))
	}
	return vectors, nil
}

func writeArtifacts(chunksPath, embeddingsPath string, chunks []models.Chunk, vectors [][]float32) error {
	chunksJSON, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(chunksPath, chunksJSON); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := corpus.WriteMatrix(&buf, vectors); err != nil {
		return err
	}
	return util.WriteFileAtomic(embeddingsPath, buf.Bytes())
}
