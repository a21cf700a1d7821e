package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/recallhq/recalld/internal/similarity"
	"github.com/recallhq/recalld/store"
)

// partitionDim extracts the expected embedding dimensionality from a
// memories_<dim> partition name.
func partitionDim(partition string) (int, error) {
	suffix, ok := strings.CutPrefix(partition, "memories_")
	if !ok {
		return 0, errors.Errorf("invalid partition name: %s", partition)
	}
	dim, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, errors.Errorf("invalid partition name: %s", partition)
	}
	return dim, nil
}

// CreateMemories inserts a batch of memories in a single transaction. The
// partition name carries the expected embedding dimensionality; mismatched
// rows are rejected up front, same as the server-side procedure.
func (d *DB) CreateMemories(ctx context.Context, partition string, memories []*store.Memory) error {
	expectedDim, err := partitionDim(partition)
	if err != nil {
		return err
	}
	for _, m := range memories {
		if len(m.Embedding) > 0 && len(m.Embedding) != expectedDim {
			return errors.Errorf("embedding dimension mismatch: got %d, want %d", len(m.Embedding), expectedDim)
		}
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt := `
		INSERT INTO memories (id, type, content, embedding, user_id, agent_id, room_id, "unique", created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, m := range memories {
		contentBytes, err := json.Marshal(m.Content)
		if err != nil {
			return errors.Wrap(err, "failed to marshal memory content")
		}
		var embedding any
		if len(m.Embedding) > 0 {
			embedding = float32ArrayToBLOB(m.Embedding)
		}
		if _, err := tx.ExecContext(ctx, stmt,
			m.ID, m.Type, contentBytes, embedding, m.UserID, m.AgentID, m.RoomID, m.Unique, m.CreatedAt,
		); err != nil {
			return errors.Wrapf(err, "failed to create memory %s", m.ID)
		}
	}

	return tx.Commit()
}

func (d *DB) ListMemories(ctx context.Context, find *store.FindMemory) ([]*store.Memory, error) {
	where, args := []string{"room_id = ?", "type = ?"}, []any{find.RoomID, find.TableName}

	if find.Unique {
		where = append(where, `"unique" = TRUE`)
	}
	if find.AgentID != nil {
		where, args = append(where, "agent_id = ?"), append(args, *find.AgentID)
	}
	if find.Start != nil {
		where, args = append(where, "created_at >= ?"), append(args, *find.Start)
	}
	if find.End != nil {
		where, args = append(where, "created_at <= ?"), append(args, *find.End)
	}

	query := `
		SELECT id, type, content, embedding, user_id, agent_id, room_id, "unique", created_at
		FROM memories
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC`
	if find.Count > 0 {
		query += " LIMIT ?"
		args = append(args, find.Count)
	}

	return d.queryMemories(ctx, query, args...)
}

func (d *DB) ListMemoriesByRoomIDs(ctx context.Context, find *store.FindMemoriesByRoomIDs) ([]*store.Memory, error) {
	where, args := []string{"room_id IN (" + placeholders(len(find.RoomIDs)) + ")", "type = ?"}, []any{}
	for _, id := range find.RoomIDs {
		args = append(args, id)
	}
	args = append(args, find.TableName)
	if find.AgentID != nil {
		where, args = append(where, "agent_id = ?"), append(args, *find.AgentID)
	}

	query := `
		SELECT id, type, content, embedding, user_id, agent_id, room_id, "unique", created_at
		FROM memories
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC`
	if find.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, find.Limit)
	}

	return d.queryMemories(ctx, query, args...)
}

func (d *DB) ListMemoriesByIDs(ctx context.Context, ids []uuid.UUID, tableName string) ([]*store.Memory, error) {
	where, args := []string{"id IN (" + placeholders(len(ids)) + ")"}, []any{}
	for _, id := range ids {
		args = append(args, id)
	}
	if tableName != "" {
		where, args = append(where, "type = ?"), append(args, tableName)
	}

	query := `
		SELECT id, type, content, embedding, user_id, agent_id, room_id, "unique", created_at
		FROM memories
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC`

	return d.queryMemories(ctx, query, args...)
}

func (d *DB) GetMemory(ctx context.Context, id uuid.UUID) (*store.Memory, error) {
	query := `
		SELECT id, type, content, embedding, user_id, agent_id, room_id, "unique", created_at
		FROM memories
		WHERE id = ?`

	list, err := d.queryMemories(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// SearchMemories ranks a room's embedded memories by cosine similarity in the
// application layer: SQLite has no vector procedures, so candidates are loaded
// and scored in Go, most similar first.
func (d *DB) SearchMemories(ctx context.Context, search *store.SearchMemory) ([]*store.MemoryWithSimilarity, error) {
	roomID := search.RoomID
	candidates, err := d.ListEmbeddedMemories(ctx, &store.FindEmbeddedMemories{
		TableName: search.TableName,
		RoomID:    &roomID,
		Unique:    search.Unique,
	})
	if err != nil {
		return nil, err
	}

	results := []*store.MemoryWithSimilarity{}
	for _, memory := range candidates {
		sim := similarity.Cosine(search.Embedding, memory.Embedding)
		if sim >= search.Threshold {
			results = append(results, &store.MemoryWithSimilarity{Memory: memory, Similarity: sim})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if search.Limit > 0 && len(results) > search.Limit {
		results = results[:search.Limit]
	}
	return results, nil
}

func (d *DB) ListEmbeddedMemories(ctx context.Context, find *store.FindEmbeddedMemories) ([]*store.Memory, error) {
	where, args := []string{"embedding IS NOT NULL", "type = ?"}, []any{find.TableName}

	if find.RoomID != nil {
		where, args = append(where, "room_id = ?"), append(args, *find.RoomID)
	}
	if find.AgentID != nil {
		where, args = append(where, "agent_id = ?"), append(args, *find.AgentID)
	}
	if find.Unique {
		where = append(where, `"unique" = TRUE`)
	}

	query := `
		SELECT id, type, content, embedding, user_id, agent_id, room_id, "unique", created_at
		FROM memories
		WHERE ` + strings.Join(where, " AND ")
	if find.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, find.Limit)
	}

	return d.queryMemories(ctx, query, args...)
}

func (d *DB) DeleteMemory(ctx context.Context, id uuid.UUID) error {
	stmt := `DELETE FROM memories WHERE id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, id); err != nil {
		return errors.Wrap(err, "failed to delete memory")
	}
	return nil
}

func (d *DB) DeleteAllMemories(ctx context.Context, roomID uuid.UUID, tableName string) error {
	stmt := `DELETE FROM memories WHERE type = ? AND room_id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, tableName, roomID); err != nil {
		return errors.Wrap(err, "failed to remove memories")
	}
	return nil
}

func (d *DB) CountMemories(ctx context.Context, roomID uuid.UUID, unique bool, tableName string) (int, error) {
	query := `SELECT COUNT(*) FROM memories WHERE type = ? AND room_id = ?`
	if unique {
		query += ` AND "unique" = TRUE`
	}

	var count int
	if err := d.db.QueryRowContext(ctx, query, tableName, roomID).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count memories")
	}
	return count, nil
}

func (d *DB) queryMemories(ctx context.Context, query string, args ...any) ([]*store.Memory, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query memories")
	}
	defer rows.Close()

	list := []*store.Memory{}
	for rows.Next() {
		memory := &store.Memory{}
		var contentBytes, embeddingBLOB []byte
		var userID, agentID, roomID sql.Null[uuid.UUID]
		if err := rows.Scan(
			&memory.ID,
			&memory.Type,
			&contentBytes,
			&embeddingBLOB,
			&userID,
			&agentID,
			&roomID,
			&memory.Unique,
			&memory.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan memory")
		}
		if err := json.Unmarshal(contentBytes, &memory.Content); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal memory content")
		}
		if len(embeddingBLOB) > 0 {
			if memory.Embedding, err = blobToFloat32Array(embeddingBLOB); err != nil {
				return nil, err
			}
		}
		memory.UserID, memory.AgentID, memory.RoomID = userID.V, agentID.V, roomID.V
		list = append(list, memory)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// placeholders returns n comma-separated ? markers for an IN list.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
