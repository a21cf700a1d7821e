package ai

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/recallhq/recalld/store"
)

const (
	// defaultChunkSize is the chunk length in runes.
	defaultChunkSize = 1500
	// defaultChunkOverlap is carried from the tail of one chunk into the next
	// so sentences split at a boundary stay searchable.
	defaultChunkOverlap = 100
	// embedBatchSize is the number of chunks embedded per API call.
	embedBatchSize = 32
	// maxConcurrentEmbedBatches bounds parallel embedding calls during ingestion.
	maxConcurrentEmbedBatches = 4
)

// KnowledgeIngestor turns documents into stored knowledge: one unembedded
// main item plus embedded chunks pointing back at it.
type KnowledgeIngestor struct {
	store    *store.Store
	embedder EmbeddingService
}

func NewKnowledgeIngestor(s *store.Store, embedder EmbeddingService) *KnowledgeIngestor {
	return &KnowledgeIngestor{store: s, embedder: embedder}
}

// IngestDocumentOptions describes a document to ingest. Shared documents are
// visible to every agent and deduplicated by their content-derived id.
type IngestDocumentOptions struct {
	AgentID uuid.UUID
	Text    string
	Shared  bool
}

// IngestDocument stores the document and its embedded chunks, returning the
// main item id. Ids are derived from content, so re-ingesting the same shared
// document is a no-op.
func (i *KnowledgeIngestor) IngestDocument(ctx context.Context, opts *IngestDocumentOptions) (uuid.UUID, error) {
	text := strings.TrimSpace(opts.Text)
	if text == "" {
		return uuid.Nil, errors.New("document text is required")
	}

	mainID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(text))
	agentID := opts.AgentID
	main := &store.KnowledgeItem{
		ID:      mainID,
		AgentID: &agentID,
		Content: store.KnowledgeContent{
			Text: text,
			Metadata: store.KnowledgeMetadata{
				IsMain:   true,
				IsShared: opts.Shared,
			},
		},
	}
	if err := i.store.CreateKnowledge(ctx, main); err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to create main knowledge item")
	}

	chunks := ChunkText(text, defaultChunkSize, defaultChunkOverlap)
	embeddings := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentEmbedBatches)
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		g.Go(func() error {
			vectors, err := i.embedder.EmbedBatch(gctx, chunks[start:end])
			if err != nil {
				return err
			}
			if len(vectors) != end-start {
				return errors.Errorf("embedding count mismatch: got %d, want %d", len(vectors), end-start)
			}
			copy(embeddings[start:end], vectors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to embed chunks")
	}

	for index, chunk := range chunks {
		chunkIndex := index
		chunkAgentID := opts.AgentID
		item := &store.KnowledgeItem{
			ID:        uuid.NewSHA1(mainID, []byte(chunk)),
			AgentID:   &chunkAgentID,
			Embedding: embeddings[index],
			Content: store.KnowledgeContent{
				Text: chunk,
				Metadata: store.KnowledgeMetadata{
					IsShared:   opts.Shared,
					OriginalID: &mainID,
					ChunkIndex: &chunkIndex,
				},
			},
		}
		if err := i.store.CreateKnowledge(ctx, item); err != nil {
			return uuid.Nil, errors.Wrapf(err, "failed to create knowledge chunk %d", index)
		}
	}

	return mainID, nil
}

// ChunkText splits text into rune chunks of at most chunkSize, each carrying
// overlap runes from the previous chunk.
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	runes := []rune(text)
	chunks := []string{}
	step := chunkSize - overlap
	for start := 0; start < len(runes); start += step {
		end := min(start+chunkSize, len(runes))
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
