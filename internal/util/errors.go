package util

import "errors"

var (
	// ErrCorpusMismatch means the chunk records and the embedding matrix do
	// not line up (count or dimensionality). Fatal at load time.
	ErrCorpusMismatch = errors.New("chunk records and embedding matrix do not match")

	// ErrEmptyCorpus means retrieval was attempted against a zero-size corpus.
	ErrEmptyCorpus = errors.New("corpus is empty")

	ErrNoExtractableText = errors.New("no extractable text found in PDF")
)
