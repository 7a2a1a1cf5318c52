package sheets

import "context"

// Row capacity for newly created worksheets; the service grows sheets
// automatically past this.
const defaultRowCapacity = 100

// EnsureWorksheet resolves the named worksheet inside sp, creating it and
// writing header as row 1 when it does not exist. A worksheet that exists
// but holds no rows at all gets the header written before any data row,
// so a manually cleared sheet heals itself on the next write.
func EnsureWorksheet(ctx context.Context, sp Spreadsheet, name string, header []string) (Worksheet, error) {
	ws, err := sp.Worksheet(ctx, name)
	if err != nil {
		if !IsNotFound(err) {
			return nil, err
		}
		ws, err = sp.AddWorksheet(ctx, name, defaultRowCapacity, len(header))
		if err != nil {
			return nil, err
		}
		if err := ws.AppendRow(ctx, header); err != nil {
			return nil, err
		}
		return ws, nil
	}

	rows, err := ws.Rows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		if err := ws.AppendRow(ctx, header); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

// Upsert writes row into the named worksheet keyed by the 1-based keyCol
// column. The key column is scanned top to bottom; the first cell equal
// to key selects the row to update, and only the non-key cells of that
// row are rewritten. Without a match the row is appended.
//
// The scan and the write are separate remote calls, so two concurrent
// upserts for the same key can both miss and both append. Callers that
// need strict per-key idempotency under concurrency must serialize.
func Upsert(ctx context.Context, sp Spreadsheet, name string, header []string, keyCol int, key string, row []string) error {
	ws, err := EnsureWorksheet(ctx, sp, name, header)
	if err != nil {
		return err
	}

	values, err := ws.ColumnValues(ctx, keyCol)
	if err != nil {
		return err
	}
	match := 0
	for i, v := range values {
		if v == key {
			match = i + 1
			break
		}
	}

	if match == 0 {
		return ws.AppendRow(ctx, row)
	}
	for i, v := range row {
		col := i + 1
		if col == keyCol {
			continue
		}
		if err := ws.UpdateCell(ctx, match, col, v); err != nil {
			return err
		}
	}
	return nil
}

// Append provisions the worksheet and appends row as a new physical row,
// with no key matching. Used for records that are append-only by design.
func Append(ctx context.Context, sp Spreadsheet, name string, header []string, row []string) error {
	ws, err := EnsureWorksheet(ctx, sp, name, header)
	if err != nil {
		return err
	}
	return ws.AppendRow(ctx, row)
}
