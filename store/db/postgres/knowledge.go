package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/recallhq/recalld/store"
)

// pqUniqueViolation is the PostgreSQL error code for a unique constraint
// violation.
const pqUniqueViolation = "23505"

// CreateKnowledge inserts a knowledge item. A duplicate shared item is the
// idempotent re-seed case: the conflict is logged and swallowed.
func (d *DB) CreateKnowledge(ctx context.Context, create *store.KnowledgeItem) error {
	contentBytes, err := json.Marshal(create.Content)
	if err != nil {
		return errors.Wrap(err, "failed to marshal knowledge content")
	}

	var embedding any
	if len(create.Embedding) > 0 {
		embedding = pgvector.NewVector(create.Embedding)
	}

	metadata := create.Content.Metadata
	fields := []string{"id", "agent_id", "content", "embedding", "is_main", "is_shared", "original_id", "chunk_index", "created_at"}
	args := []any{create.ID, create.AgentID, contentBytes, embedding, metadata.IsMain, metadata.IsShared, metadata.OriginalID, metadata.ChunkIndex, create.CreatedAt}

	stmt := `INSERT INTO knowledge (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		var pqErr *pq.Error
		if metadata.IsShared && errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			slog.Info("shared knowledge already exists, skipping", "id", create.ID)
			return nil
		}
		return errors.Wrapf(err, "failed to create knowledge %s", create.ID)
	}
	return nil
}

func (d *DB) ListKnowledge(ctx context.Context, find *store.FindKnowledge) ([]*store.KnowledgeItem, error) {
	where, args := []string{"(agent_id = " + placeholder(1) + " OR is_shared = TRUE)"}, []any{find.AgentID}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.Query != nil {
		where, args = append(where, "content->>'text' ILIKE "+placeholder(len(args)+1)), append(args, "%"+*find.Query+"%")
	}

	query := `
		SELECT id, agent_id, content, embedding, created_at
		FROM knowledge
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += " LIMIT " + placeholder(len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list knowledge")
	}
	defer rows.Close()

	list := []*store.KnowledgeItem{}
	for rows.Next() {
		item := &store.KnowledgeItem{}
		var agentID sql.Null[uuid.UUID]
		var contentBytes []byte
		var vector sql.Null[pgvector.Vector]
		if err := rows.Scan(&item.ID, &agentID, &contentBytes, &vector, &item.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge")
		}
		if err := json.Unmarshal(contentBytes, &item.Content); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal knowledge content")
		}
		if agentID.Valid {
			item.AgentID = &agentID.V
		}
		if vector.Valid {
			item.Embedding = vector.V.Slice()
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// SearchKnowledge delegates to the search_knowledge procedure; the returned
// similarity is the procedure's combined vector+text score.
func (d *DB) SearchKnowledge(ctx context.Context, search *store.SearchKnowledgeOptions) ([]*store.KnowledgeItemWithScore, error) {
	query := `SELECT * FROM search_knowledge($1, $2, $3, $4, $5)`
	rows, err := d.db.QueryContext(ctx, query,
		pgvector.NewVector(search.Embedding),
		search.AgentID,
		search.Threshold,
		search.Limit,
		search.SearchText,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search knowledge")
	}
	defer rows.Close()

	results := []*store.KnowledgeItemWithScore{}
	for rows.Next() {
		item := &store.KnowledgeItem{}
		var agentID sql.Null[uuid.UUID]
		var contentBytes []byte
		var isMain, isShared bool
		var originalID sql.Null[uuid.UUID]
		var chunkIndex sql.NullInt64
		var score float64
		if err := rows.Scan(&item.ID, &agentID, &contentBytes, &isMain, &isShared, &originalID, &chunkIndex, &item.CreatedAt, &score); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge search result")
		}
		if err := json.Unmarshal(contentBytes, &item.Content); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal knowledge content")
		}
		if agentID.Valid {
			item.AgentID = &agentID.V
		}
		results = append(results, &store.KnowledgeItemWithScore{KnowledgeItem: item, Similarity: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *DB) DeleteKnowledge(ctx context.Context, id uuid.UUID) error {
	stmt := `DELETE FROM knowledge WHERE id = ` + placeholder(1)
	if _, err := d.db.ExecContext(ctx, stmt, id); err != nil {
		return errors.Wrap(err, "failed to delete knowledge")
	}
	return nil
}

func (d *DB) DeleteAllKnowledge(ctx context.Context, agentID uuid.UUID, shared bool) error {
	stmt := `DELETE FROM knowledge WHERE agent_id = ` + placeholder(1)
	if shared {
		stmt += ` AND is_shared = TRUE`
	}
	if _, err := d.db.ExecContext(ctx, stmt, agentID); err != nil {
		return errors.Wrapf(err, "failed to clear knowledge for agent %s", agentID)
	}
	return nil
}
