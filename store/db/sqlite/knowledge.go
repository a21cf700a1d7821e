package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/recallhq/recalld/internal/similarity"
	"github.com/recallhq/recalld/store"
)

// keywordBoost is the score bonus for a substring match on the search text,
// matching the server-side combined score.
const keywordBoost = 0.3

// isUniqueViolation reports whether err is a unique or primary key constraint
// violation.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlitedriver.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// CreateKnowledge inserts a knowledge item. A duplicate shared item is the
// idempotent re-seed case: the conflict is logged and swallowed.
func (d *DB) CreateKnowledge(ctx context.Context, create *store.KnowledgeItem) error {
	contentBytes, err := json.Marshal(create.Content)
	if err != nil {
		return errors.Wrap(err, "failed to marshal knowledge content")
	}

	var embedding any
	if len(create.Embedding) > 0 {
		embedding = float32ArrayToBLOB(create.Embedding)
	}

	metadata := create.Content.Metadata
	stmt := `
		INSERT INTO knowledge (id, agent_id, content, embedding, is_main, is_shared, original_id, chunk_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID, create.AgentID, contentBytes, embedding,
		metadata.IsMain, metadata.IsShared, metadata.OriginalID, metadata.ChunkIndex, create.CreatedAt,
	); err != nil {
		if metadata.IsShared && isUniqueViolation(err) {
			slog.Info("shared knowledge already exists, skipping", "id", create.ID)
			return nil
		}
		return errors.Wrapf(err, "failed to create knowledge %s", create.ID)
	}
	return nil
}

func (d *DB) ListKnowledge(ctx context.Context, find *store.FindKnowledge) ([]*store.KnowledgeItem, error) {
	where, args := []string{"(agent_id = ? OR is_shared = TRUE)"}, []any{find.AgentID}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.Query != nil {
		where, args = append(where, "content LIKE ?"), append(args, "%"+*find.Query+"%")
	}

	query := `
		SELECT id, agent_id, content, embedding, created_at
		FROM knowledge
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC`
	if find.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, find.Limit)
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
		var contentBytes, embeddingBLOB []byte
		if err := rows.Scan(&item.ID, &agentID, &contentBytes, &embeddingBLOB, &item.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge")
		}
		if err := json.Unmarshal(contentBytes, &item.Content); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal knowledge content")
		}
		if agentID.Valid {
			item.AgentID = &agentID.V
		}
		if len(embeddingBLOB) > 0 {
			if item.Embedding, err = blobToFloat32Array(embeddingBLOB); err != nil {
				return nil, err
			}
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// SearchKnowledge combines cosine similarity with a keyword boost in the
// application layer, mirroring the server-side combined score: rows passing
// the vector threshold are ranked by vector score plus the boost.
func (d *DB) SearchKnowledge(ctx context.Context, search *store.SearchKnowledgeOptions) ([]*store.KnowledgeItemWithScore, error) {
	query := `
		SELECT id, agent_id, content, embedding, created_at
		FROM knowledge
		WHERE (agent_id = ? OR is_shared = TRUE) AND embedding IS NOT NULL`

	rows, err := d.db.QueryContext(ctx, query, search.AgentID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search knowledge")
	}
	defer rows.Close()

	searchText := strings.ToLower(search.SearchText)
	results := []*store.KnowledgeItemWithScore{}
	for rows.Next() {
		item := &store.KnowledgeItem{}
		var agentID sql.Null[uuid.UUID]
		var contentBytes, embeddingBLOB []byte
		if err := rows.Scan(&item.ID, &agentID, &contentBytes, &embeddingBLOB, &item.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge")
		}
		if err := json.Unmarshal(contentBytes, &item.Content); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal knowledge content")
		}
		if agentID.Valid {
			item.AgentID = &agentID.V
		}
		if item.Embedding, err = blobToFloat32Array(embeddingBLOB); err != nil {
			return nil, err
		}

		vectorScore := similarity.Cosine(search.Embedding, item.Embedding)
		if !(vectorScore >= search.Threshold) {
			continue
		}
		score := vectorScore
		if searchText != "" && strings.Contains(strings.ToLower(item.Content.Text), searchText) {
			score += keywordBoost
		}
		results = append(results, &store.KnowledgeItemWithScore{KnowledgeItem: item, Similarity: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if search.Limit > 0 && len(results) > search.Limit {
		results = results[:search.Limit]
	}
	return results, nil
}

func (d *DB) DeleteKnowledge(ctx context.Context, id uuid.UUID) error {
	stmt := `DELETE FROM knowledge WHERE id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, id); err != nil {
		return errors.Wrap(err, "failed to delete knowledge")
	}
	return nil
}

func (d *DB) DeleteAllKnowledge(ctx context.Context, agentID uuid.UUID, shared bool) error {
	stmt := `DELETE FROM knowledge WHERE agent_id = ?`
	if shared {
		stmt += ` AND is_shared = TRUE`
	}
	if _, err := d.db.ExecContext(ctx, stmt, agentID); err != nil {
		return errors.Wrapf(err, "failed to clear knowledge for agent %s", agentID)
	}
	return nil
}
