// Package mongosink upserts result rows into a MongoDB collection, one
// document per accumulation window keyed by window_end. Upserting (rather
// than inserting) makes reprocessing a range idempotent.
package mongosink

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/couchcryptid/precip-data-etl/internal/domain"
)

// Writer implements pipeline.Sink against a MongoDB collection.
type Writer struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewWriter creates a Mongo sink writing to database/collection on client.
func NewWriter(client *mongo.Client, database, collection string, logger *slog.Logger) *Writer {
	return &Writer{
		collection: client.Database(database).Collection(collection),
		logger:     logger,
	}
}

func (w *Writer) Name() string { return "mongo" }

// WriteTable upserts one document per row. Absent values are stored as
// explicit nulls so consumers can distinguish "no data" from "not reported".
func (w *Writer) WriteTable(ctx context.Context, table *domain.ResultTable) error {
	if len(table.Rows) == 0 {
		w.logger.Info("mongo sink: empty table, nothing to upsert")
		return nil
	}

	models := make([]mongo.WriteModel, len(table.Rows))
	for i, row := range table.Rows {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"window_end": row.WindowEnd}).
			SetReplacement(rowDocument(table, row)).
			SetUpsert(true)
	}

	result, err := w.collection.BulkWrite(ctx, models)
	if err != nil {
		return fmt.Errorf("mongo bulk upsert: %w", err)
	}

	w.logger.Info("mongo documents upserted",
		"matched", result.MatchedCount,
		"upserted", result.UpsertedCount,
		"modified", result.ModifiedCount)
	return nil
}

func rowDocument(table *domain.ResultTable, row domain.ExtractionRow) bson.M {
	doc := bson.M{
		"window_end":      row.WindowEnd,
		"window_complete": row.Complete,
		"updated_at":      table.GeneratedAt,
	}
	for name, v := range row.Values {
		if v == nil {
			doc[name] = nil
		} else {
			doc[name] = *v
		}
	}
	return doc
}
