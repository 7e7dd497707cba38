package storage

import (
	"path/filepath"
	"testing"
	"time"

	"blip_sim/internal/domain"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func settled(id, path string, at time.Time) *domain.SettledOrder {
	return domain.NewSettledOrder(domain.Order{
		ID:       id,
		Amount:   "500 USDT",
		Rate:     "3.6725 AED",
		Fiat:     "1,836.25 AED",
		UserName: "Ahmed K.",
		Priority: "High",
	}, path, 4*time.Second, at)
}

func TestRecordAndListSettlements(t *testing.T) {
	s := setupTestDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := s.RecordSettlement(settled("a", domain.PathReleased, base)); err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}
	if err := s.RecordSettlement(settled("b", domain.PathProgressed, base.Add(time.Minute))); err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}

	rows, err := s.RecentSettlements(10)
	if err != nil {
		t.Fatalf("RecentSettlements failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].OrderID != "b" {
		t.Errorf("expected newest first, got %s", rows[0].OrderID)
	}
	if rows[1].Fiat != "1,836.25 AED" || rows[1].SimClock != 4000 {
		t.Errorf("unexpected row %+v", rows[1])
	}
}

func TestRecordSettlement_SameOrderAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	at := time.Now()

	for run, p := range []string{domain.PathReleased, domain.PathProgressed} {
		s, err := NewStorage(path)
		if err != nil {
			t.Fatalf("run %d: failed to open db: %v", run, err)
		}
		if err := s.RecordSettlement(settled("seed-1", p, at.Add(time.Duration(run)*time.Minute))); err != nil {
			t.Fatalf("run %d: RecordSettlement failed: %v", run, err)
		}
		s.Close()
	}

	s, err := NewStorage(path)
	if err != nil {
		t.Fatalf("failed to reopen db: %v", err)
	}
	defer s.Close()

	rows, err := s.RecentSettlements(10)
	if err != nil {
		t.Fatalf("RecentSettlements failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Path != domain.PathProgressed || rows[1].Path != domain.PathReleased {
		t.Errorf("expected [progressed released], got [%s %s]", rows[0].Path, rows[1].Path)
	}
	if rows[0].ID == rows[1].ID {
		t.Errorf("expected distinct row ids, got %d twice", rows[0].ID)
	}

	counts, _ := s.CountByPath()
	if counts[domain.PathReleased] != 1 || counts[domain.PathProgressed] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestRecentSettlements_Limit(t *testing.T) {
	s := setupTestDB(t)
	base := time.Now()
	for i, id := range []string{"1", "2", "3", "4"} {
		s.RecordSettlement(settled(id, domain.PathProgressed, base.Add(time.Duration(i)*time.Second)))
	}

	rows, err := s.RecentSettlements(2)
	if err != nil {
		t.Fatalf("RecentSettlements failed: %v", err)
	}
	if len(rows) != 2 || rows[0].OrderID != "4" || rows[1].OrderID != "3" {
		t.Errorf("expected [4 3], got %+v", rows)
	}
}

func TestCountByPath(t *testing.T) {
	s := setupTestDB(t)
	now := time.Now()
	s.RecordSettlement(settled("a", domain.PathReleased, now))
	s.RecordSettlement(settled("b", domain.PathProgressed, now))
	s.RecordSettlement(settled("c", domain.PathProgressed, now))

	counts, err := s.CountByPath()
	if err != nil {
		t.Fatalf("CountByPath failed: %v", err)
	}
	if counts[domain.PathReleased] != 1 || counts[domain.PathProgressed] != 2 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestStorage_ImplementsLedger(t *testing.T) {
	var _ domain.SettlementLedger = (*Storage)(nil)
}
