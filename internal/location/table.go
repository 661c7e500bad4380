// Package location translates external location identifiers from the daily
// export into the location keys the admin panel expects.
package location

import (
	"context"
	"log/slog"

	"github.com/Veraticus/visitor-sync/internal/model"
)

// table is fixed for the lifetime of the process; it is never written after init.
var table = map[string]string{
	"119": "loc-1",
	"120": "loc-2",
	"121": "loc-3",
	"122": "loc-4",
	"123": "loc-5",
}

// Lookup returns the panel location key for an external identifier.
func Lookup(id string) (string, bool) {
	key, ok := table[id]
	return key, ok
}

// Map builds the panel update from parsed export records. Records with an
// unknown ID are skipped; when an ID repeats, the later record wins.
func Map(ctx context.Context, records []model.Record) model.Update {
	update := make(model.Update)

	for _, record := range records {
		key, ok := Lookup(record.ID())
		if !ok {
			slog.DebugContext(ctx, "Skipping record with unknown location id", "id", record.ID())
			continue
		}
		update[key] = record.Current()
	}

	return update
}
