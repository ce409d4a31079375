package notionsync

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/dvloznov/redot2koinly/internal/ledger"
	"github.com/jomei/notionapi"
)

// mockNotionService implements NotionService for testing.
type mockNotionService struct {
	CreatePageFunc    func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabaseFunc func(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

func (m *mockNotionService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if m.CreatePageFunc != nil {
		return m.CreatePageFunc(ctx, databaseID, properties)
	}
	return &notionapi.Page{ID: "page-id"}, nil
}

func (m *mockNotionService) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if m.QueryDatabaseFunc != nil {
		return m.QueryDatabaseFunc(ctx, databaseID, filter)
	}
	return &notionapi.DatabaseQueryResponse{}, nil
}

func testRecord() ledger.Record {
	return ledger.Record{
		KoinlyDate: "2025-09-03 11:30 UTC",
		Amount:     "-0.06053524",
		Currency:   "ETH",
		Label:      "LUSH GMBH",
	}
}

func pageWithKey(key string) notionapi.Page {
	return notionapi.Page{
		ID: "existing-page",
		Properties: notionapi.Properties{
			"Record Key": &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: key}},
			},
		},
	}
}

func TestSyncLedgerCreatesMissingRecords(t *testing.T) {
	var created []notionapi.Properties
	client := &mockNotionService{
		CreatePageFunc: func(ctx context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
			created = append(created, props)
			return &notionapi.Page{ID: notionapi.ObjectID("page-" + strconv.Itoa(len(created)))}, nil
		},
	}

	err := SyncLedger(context.Background(), []ledger.Record{testRecord()}, client, "db-id", false)
	if err != nil {
		t.Fatalf("SyncLedger failed: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d pages, want 1", len(created))
	}
}

func TestSyncLedgerSkipsExistingRecords(t *testing.T) {
	rec := testRecord()
	client := &mockNotionService{
		QueryDatabaseFunc: func(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			return &notionapi.DatabaseQueryResponse{
				Results: []notionapi.Page{pageWithKey(RecordKey(rec))},
			}, nil
		},
		CreatePageFunc: func(ctx context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
			t.Error("CreatePage called for a record that already exists")
			return &notionapi.Page{}, nil
		},
	}

	if err := SyncLedger(context.Background(), []ledger.Record{rec}, client, "db-id", false); err != nil {
		t.Fatalf("SyncLedger failed: %v", err)
	}
}

func TestSyncLedgerSkipsDuplicateWithinRun(t *testing.T) {
	var created int
	client := &mockNotionService{
		CreatePageFunc: func(ctx context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
			created++
			return &notionapi.Page{ID: "page-id"}, nil
		},
	}

	records := []ledger.Record{testRecord(), testRecord()}
	if err := SyncLedger(context.Background(), records, client, "db-id", false); err != nil {
		t.Fatalf("SyncLedger failed: %v", err)
	}
	if created != 1 {
		t.Errorf("created %d pages, want 1 (duplicate within run skipped)", created)
	}
}

func TestSyncLedgerDryRunCreatesNothing(t *testing.T) {
	client := &mockNotionService{
		CreatePageFunc: func(ctx context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
			t.Error("CreatePage called during dry run")
			return &notionapi.Page{}, nil
		},
	}

	if err := SyncLedger(context.Background(), []ledger.Record{testRecord()}, client, "db-id", true); err != nil {
		t.Fatalf("SyncLedger failed: %v", err)
	}
}

func TestSyncLedgerReportsFailures(t *testing.T) {
	client := &mockNotionService{
		CreatePageFunc: func(ctx context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
			return nil, errors.New("rate limited")
		},
	}

	err := SyncLedger(context.Background(), []ledger.Record{testRecord()}, client, "db-id", false)
	if err == nil {
		t.Error("expected error when page creation fails")
	}
}

func TestSyncLedgerPaginatesExistingPages(t *testing.T) {
	var calls int
	client := &mockNotionService{
		QueryDatabaseFunc: func(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			calls++
			if calls == 1 {
				return &notionapi.DatabaseQueryResponse{
					Results:    []notionapi.Page{pageWithKey("other|key|A|B")},
					HasMore:    true,
					NextCursor: "cursor-2",
				}, nil
			}
			if filter.StartCursor != "cursor-2" {
				t.Errorf("StartCursor = %q, want cursor-2", filter.StartCursor)
			}
			return &notionapi.DatabaseQueryResponse{
				Results: []notionapi.Page{pageWithKey(RecordKey(testRecord()))},
			}, nil
		},
		CreatePageFunc: func(ctx context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
			t.Error("CreatePage called for a record found on the second page")
			return &notionapi.Page{}, nil
		},
	}

	if err := SyncLedger(context.Background(), []ledger.Record{testRecord()}, client, "db-id", false); err != nil {
		t.Fatalf("SyncLedger failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("QueryDatabase called %d times, want 2", calls)
	}
}
