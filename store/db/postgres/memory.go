package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/recallhq/recalld/store"
)

// memoryRecord is the JSON shape consumed by the batch_insert_memories
// procedure.
type memoryRecord struct {
	ID        uuid.UUID           `json:"id"`
	Type      string              `json:"type"`
	Content   store.MemoryContent `json:"content"`
	Embedding []float32           `json:"embedding,omitempty"`
	UserID    uuid.UUID           `json:"userId"`
	AgentID   uuid.UUID           `json:"agentId"`
	RoomID    uuid.UUID           `json:"roomId"`
	Unique    bool                `json:"unique"`
	CreatedAt time.Time           `json:"createdAt"`
}

// CreateMemories writes memories through the batch-insert procedure. The
// partition name carries the expected embedding dimensionality and the
// procedure rejects mismatched rows.
func (d *DB) CreateMemories(ctx context.Context, partition string, memories []*store.Memory) error {
	records := make([]memoryRecord, 0, len(memories))
	for _, m := range memories {
		records = append(records, memoryRecord{
			ID:        m.ID,
			Type:      m.Type,
			Content:   m.Content,
			Embedding: m.Embedding,
			UserID:    m.UserID,
			AgentID:   m.AgentID,
			RoomID:    m.RoomID,
			Unique:    m.Unique,
			CreatedAt: m.CreatedAt,
		})
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return errors.Wrap(err, "failed to marshal memories")
	}

	if _, err := d.db.ExecContext(ctx, `SELECT batch_insert_memories($1, $2::jsonb)`, partition, payload); err != nil {
		return errors.Wrap(err, "failed to batch insert memories")
	}
	return nil
}

func (d *DB) ListMemories(ctx context.Context, find *store.FindMemory) ([]*store.Memory, error) {
	where, args := []string{"room_id = " + placeholder(1), "type = " + placeholder(2)}, []any{find.RoomID, find.TableName}

	if find.Unique {
		where = append(where, `"unique" = TRUE`)
	}
	if find.AgentID != nil {
		where, args = append(where, "agent_id = "+placeholder(len(args)+1)), append(args, *find.AgentID)
	}
	if find.Start != nil {
		where, args = append(where, "created_at >= "+placeholder(len(args)+1)), append(args, *find.Start)
	}
	if find.End != nil {
		where, args = append(where, "created_at <= "+placeholder(len(args)+1)), append(args, *find.End)
	}

	query := `
		SELECT id, type, content, embedding, user_id, agent_id, room_id, "unique", created_at
		FROM memories
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC`
	if find.Count > 0 {
		args = append(args, find.Count)
		query += " LIMIT " + placeholder(len(args))
	}

	return d.queryMemories(ctx, query, args...)
}

func (d *DB) ListMemoriesByRoomIDs(ctx context.Context, find *store.FindMemoriesByRoomIDs) ([]*store.Memory, error) {
	roomIDs := make([]string, 0, len(find.RoomIDs))
	for _, id := range find.RoomIDs {
		roomIDs = append(roomIDs, id.String())
	}

	where, args := []string{"room_id = ANY(" + placeholder(1) + ")", "type = " + placeholder(2)}, []any{pq.Array(roomIDs), find.TableName}
	if find.AgentID != nil {
		where, args = append(where, "agent_id = "+placeholder(len(args)+1)), append(args, *find.AgentID)
	}

	query := `
		SELECT id, type, content, embedding, user_id, agent_id, room_id, "unique", created_at
		FROM memories
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC`
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += " LIMIT " + placeholder(len(args))
	}

	return d.queryMemories(ctx, query, args...)
}

func (d *DB) ListMemoriesByIDs(ctx context.Context, ids []uuid.UUID, tableName string) ([]*store.Memory, error) {
	idStrings := make([]string, 0, len(ids))
	for _, id := range ids {
		idStrings = append(idStrings, id.String())
	}

	where, args := []string{"id = ANY(" + placeholder(1) + ")"}, []any{pq.Array(idStrings)}
	if tableName != "" {
		where, args = append(where, "type = "+placeholder(2)), append(args, tableName)
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
		WHERE id = ` + placeholder(1)

	list, err := d.queryMemories(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// SearchMemories delegates ranking to the search_memories procedure.
func (d *DB) SearchMemories(ctx context.Context, search *store.SearchMemory) ([]*store.MemoryWithSimilarity, error) {
	query := `SELECT * FROM search_memories($1, $2, $3, $4, $5, $6)`
	rows, err := d.db.QueryContext(ctx, query,
		search.TableName,
		search.RoomID,
		pgvector.NewVector(search.Embedding),
		search.Threshold,
		search.Limit,
		search.Unique,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search memories")
	}
	defer rows.Close()

	results := []*store.MemoryWithSimilarity{}
	for rows.Next() {
		memory := &store.Memory{}
		var contentBytes []byte
		var userID, agentID, roomID sql.Null[uuid.UUID]
		var similarity float64
		if err := rows.Scan(
			&memory.ID,
			&memory.Type,
			&contentBytes,
			&userID,
			&agentID,
			&roomID,
			&memory.Unique,
			&memory.CreatedAt,
			&similarity,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan memory search result")
		}
		if err := json.Unmarshal(contentBytes, &memory.Content); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal memory content")
		}
		memory.UserID, memory.AgentID, memory.RoomID = userID.V, agentID.V, roomID.V
		results = append(results, &store.MemoryWithSimilarity{Memory: memory, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *DB) ListEmbeddedMemories(ctx context.Context, find *store.FindEmbeddedMemories) ([]*store.Memory, error) {
	where, args := []string{"embedding IS NOT NULL", "type = " + placeholder(1)}, []any{find.TableName}

	if find.RoomID != nil {
		where, args = append(where, "room_id = "+placeholder(len(args)+1)), append(args, *find.RoomID)
	}
	if find.AgentID != nil {
		where, args = append(where, "agent_id = "+placeholder(len(args)+1)), append(args, *find.AgentID)
	}
	if find.Unique {
		where = append(where, `"unique" = TRUE`)
	}

	query := `
		SELECT id, type, content, embedding, user_id, agent_id, room_id, "unique", created_at
		FROM memories
		WHERE ` + strings.Join(where, " AND ")
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += " LIMIT " + placeholder(len(args))
	}

	return d.queryMemories(ctx, query, args...)
}

func (d *DB) DeleteMemory(ctx context.Context, id uuid.UUID) error {
	stmt := `DELETE FROM memories WHERE id = ` + placeholder(1)
	if _, err := d.db.ExecContext(ctx, stmt, id); err != nil {
		return errors.Wrap(err, "failed to delete memory")
	}
	return nil
}

func (d *DB) DeleteAllMemories(ctx context.Context, roomID uuid.UUID, tableName string) error {
	if _, err := d.db.ExecContext(ctx, `SELECT remove_memories($1, $2)`, tableName, roomID); err != nil {
		return errors.Wrap(err, "failed to remove memories")
	}
	return nil
}

func (d *DB) CountMemories(ctx context.Context, roomID uuid.UUID, unique bool, tableName string) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT count_memories($1, $2, $3)`, tableName, roomID, unique).Scan(&count); err != nil {
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
		var contentBytes []byte
		var vector sql.Null[pgvector.Vector]
		var userID, agentID, roomID sql.Null[uuid.UUID]
		if err := rows.Scan(
			&memory.ID,
			&memory.Type,
			&contentBytes,
			&vector,
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
		if vector.Valid {
			memory.Embedding = vector.V.Slice()
		}
		memory.UserID, memory.AgentID, memory.RoomID = userID.V, agentID.V, roomID.V
		list = append(list, memory)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
