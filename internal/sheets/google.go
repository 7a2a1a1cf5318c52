package sheets

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// GoogleStore talks to the Google Sheets API using service account
// credentials. The underlying service is built lazily on first use and
// shared by all subsequent calls.
type GoogleStore struct {
	credentialsFile string

	once    sync.Once
	svc     *gsheets.Service
	initErr error
}

// NewGoogleStore returns a store backed by the given service account key
// file. No network or filesystem access happens until the first call.
func NewGoogleStore(credentialsFile string) *GoogleStore {
	return &GoogleStore{credentialsFile: credentialsFile}
}

func (s *GoogleStore) service(ctx context.Context) (*gsheets.Service, error) {
	s.once.Do(func() {
		b, err := os.ReadFile(s.credentialsFile)
		if err != nil {
			s.initErr = &StoreError{Kind: KindAuth, Op: "read credentials", Err: err}
			return
		}
		conf, err := google.JWTConfigFromJSON(b, gsheets.SpreadsheetsScope)
		if err != nil {
			s.initErr = &StoreError{Kind: KindAuth, Op: "parse credentials", Err: err}
			return
		}
		svc, err := gsheets.NewService(ctx, option.WithHTTPClient(conf.Client(context.Background())))
		if err != nil {
			s.initErr = &StoreError{Kind: KindAuth, Op: "create service", Err: err}
			return
		}
		s.svc = svc
	})
	return s.svc, s.initErr
}

// Ready reports whether the API client can be constructed. Used by the
// validation endpoint; it does not touch any spreadsheet.
func (s *GoogleStore) Ready(ctx context.Context) bool {
	_, err := s.service(ctx)
	return err == nil
}

// Open returns a handle to the spreadsheet with the given identifier,
// verifying it is reachable with the configured credentials.
func (s *GoogleStore) Open(ctx context.Context, spreadsheetID string) (Spreadsheet, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}
	err = retryRead(ctx, func() error {
		_, err := svc.Spreadsheets.Get(spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
		return classify("open spreadsheet", err)
	})
	if err != nil {
		return nil, err
	}
	return &googleSpreadsheet{svc: svc, id: spreadsheetID}, nil
}

type googleSpreadsheet struct {
	svc *gsheets.Service
	id  string
}

func (g *googleSpreadsheet) Worksheet(ctx context.Context, name string) (Worksheet, error) {
	var meta *gsheets.Spreadsheet
	err := retryRead(ctx, func() error {
		m, err := g.svc.Spreadsheets.Get(g.id).Fields("sheets.properties.title").Context(ctx).Do()
		if err != nil {
			return classify("list worksheets", err)
		}
		meta = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			return &googleWorksheet{svc: g.svc, id: g.id, title: name}, nil
		}
	}
	return nil, &StoreError{
		Kind: KindNotFound,
		Op:   "resolve worksheet",
		Err:  fmt.Errorf("worksheet %q not found", name),
	}
}

func (g *googleSpreadsheet) AddWorksheet(ctx context.Context, name string, rows, cols int) (Worksheet, error) {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title: name,
					GridProperties: &gsheets.GridProperties{
						RowCount:    int64(rows),
						ColumnCount: int64(cols),
					},
				},
			},
		}},
	}
	if _, err := g.svc.Spreadsheets.BatchUpdate(g.id, req).Context(ctx).Do(); err != nil {
		return nil, classify("add worksheet", err)
	}
	return &googleWorksheet{svc: g.svc, id: g.id, title: name}, nil
}

type googleWorksheet struct {
	svc   *gsheets.Service
	id    string
	title string
}

func (w *googleWorksheet) Rows(ctx context.Context) ([][]string, error) {
	var vr *gsheets.ValueRange
	err := retryRead(ctx, func() error {
		v, err := w.svc.Spreadsheets.Values.Get(w.id, quoteTitle(w.title)).Context(ctx).Do()
		if err != nil {
			return classify("read rows", err)
		}
		vr = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(vr.Values))
	for _, raw := range vr.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (w *googleWorksheet) ColumnValues(ctx context.Context, col int) ([]string, error) {
	letter := columnLetter(col)
	rng := fmt.Sprintf("%s!%s:%s", quoteTitle(w.title), letter, letter)
	var vr *gsheets.ValueRange
	err := retryRead(ctx, func() error {
		v, err := w.svc.Spreadsheets.Values.Get(w.id, rng).Context(ctx).Do()
		if err != nil {
			return classify("read column", err)
		}
		vr = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(vr.Values))
	for _, row := range vr.Values {
		if len(row) == 0 {
			values = append(values, "")
			continue
		}
		values = append(values, fmt.Sprint(row[0]))
	}
	return values, nil
}

func (w *googleWorksheet) AppendRow(ctx context.Context, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	vr := &gsheets.ValueRange{Values: [][]interface{}{cells}}
	_, err := w.svc.Spreadsheets.Values.
		Append(w.id, quoteTitle(w.title)+"!A1", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return classify("append row", err)
}

func (w *googleWorksheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	rng := fmt.Sprintf("%s!%s%d", quoteTitle(w.title), columnLetter(col), row)
	vr := &gsheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := w.svc.Spreadsheets.Values.
		Update(w.id, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	return classify("update cell", err)
}

// classify wraps a Google API error into a *StoreError. A nil error stays
// nil.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := KindTransport
	if ge, ok := err.(*googleapi.Error); ok {
		switch {
		case ge.Code == 401 || ge.Code == 403:
			kind = KindAuth
		case ge.Code == 404:
			kind = KindNotFound
		case ge.Code == 429:
			kind = KindRateLimit
		}
	}
	return &StoreError{Kind: kind, Op: op, Err: err}
}

// retryRead retries transient read failures (transport hiccups, rate
// limits) with exponential backoff. Auth and not-found errors are
// permanent. Writes never go through here: the service makes a single
// write attempt per request.
func retryRead(ctx context.Context, op func() error) error {
	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if se, ok := err.(*StoreError); ok {
			if se.Kind == KindTransport || se.Kind == KindRateLimit {
				return err
			}
		}
		return backoff.Permanent(err)
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 15 * time.Second
	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx))
}

func quoteTitle(title string) string {
	return "'" + title + "'"
}

// columnLetter converts a 1-based column index to its A1 letter form.
func columnLetter(col int) string {
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	return letters
}
