package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"recipecost/internal/core/id"
	"recipecost/internal/domain/recipe"
	"recipecost/internal/infrastructure/storage/postgres"
)

const recipeHistoryTable = "doc_recipe_history"

// snapshotRow is a history row; items live in the encoded payload columns.
type snapshotRow struct {
	recipe.Snapshot
	postgres.EncodedPayload
}

// HistoryRepo implements recipe.HistoryRepository.
// Item lists are stored as JSON, zstd-compressed above the codec threshold.
type HistoryRepo struct {
	txManager *postgres.TxManager
	codec     *postgres.PayloadCodec
	cols      []string
}

var _ recipe.HistoryRepository = (*HistoryRepo)(nil)

// NewHistoryRepo creates a new history repository.
func NewHistoryRepo(txManager *postgres.TxManager, codec *postgres.PayloadCodec) *HistoryRepo {
	return &HistoryRepo{
		txManager: txManager,
		codec:     codec,
		cols:      postgres.ExtractDBColumns[snapshotRow](),
	}
}

func (h *HistoryRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Append inserts a snapshot. Rows are never updated.
func (h *HistoryRepo) Append(ctx context.Context, s *recipe.Snapshot) error {
	payload, err := h.codec.Encode(s.Items)
	if err != nil {
		return fmt.Errorf("encode snapshot items: %w", err)
	}

	data := postgres.StructToMap(snapshotRow{Snapshot: *s, EncodedPayload: payload})
	sql, args, err := h.builder().
		Insert(recipeHistoryTable).
		SetMap(postgres.Pick(data, h.cols)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := h.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// ListByRecipe returns snapshots newest first.
func (h *HistoryRepo) ListByRecipe(ctx context.Context, recipeID id.ID) ([]recipe.Snapshot, error) {
	return h.query(ctx, squirrel.Eq{"recipe_id": recipeID})
}

// GetByIDs returns the requested snapshots of one recipe; unknown ids are skipped.
func (h *HistoryRepo) GetByIDs(ctx context.Context, recipeID id.ID, snapshotIDs []id.ID) ([]recipe.Snapshot, error) {
	if len(snapshotIDs) == 0 {
		return []recipe.Snapshot{}, nil
	}
	return h.query(ctx, squirrel.Eq{"recipe_id": recipeID, "id": snapshotIDs})
}

func (h *HistoryRepo) query(ctx context.Context, where squirrel.Eq) ([]recipe.Snapshot, error) {
	sql, args, err := h.builder().
		Select(h.cols...).
		From(recipeHistoryTable).
		Where(where).
		OrderBy("snapshot_date DESC", "recipe_version DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []snapshotRow
	if err := pgxscan.Select(ctx, h.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := make([]recipe.Snapshot, 0, len(rows))
	for _, row := range rows {
		snap := row.Snapshot
		snap.Items = make([]recipe.Item, 0)
		if err := h.codec.Decode(row.EncodedPayload, &snap.Items); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
		}
		out = append(out, snap)
	}
	return out, nil
}
