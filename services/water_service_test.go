package services

import (
	"strings"
	"testing"

	"backend/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// one in-memory database per test; keep the pool on a single connection
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.WaterLedgerEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, level int) *models.User {
	t.Helper()

	u := &models.User{
		FullName:   "Test User",
		Email:      "test@example.com",
		Username:   "tester",
		Password:   "irrelevant",
		WaterLevel: level,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func ledgerEntries(t *testing.T, db *gorm.DB, userID uint) []models.WaterLedgerEntry {
	t.Helper()

	var entries []models.WaterLedgerEntry
	if err := db.Where("user_id = ?", userID).Order("id ASC").Find(&entries).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	return entries
}

// --- clamp laws ---

func TestIncreaseClampsAtFull(t *testing.T) {
	db := newTestDB(t)
	u := newTestUser(t, db, 95)
	svc := NewWaterService(db, nil)

	before, after, err := svc.Increase(u.ID, 10)
	if err != nil {
		t.Fatalf("Increase: %v", err)
	}
	if before != 95 || after != 100 {
		t.Errorf("Increase(95, 10) = %d -> %d, want 95 -> 100", before, after)
	}
}

func TestDecreaseClampsAtEmpty(t *testing.T) {
	db := newTestDB(t)
	u := newTestUser(t, db, 3)
	svc := NewWaterService(db, nil)

	before, after, err := svc.Decrease(u.ID, 10)
	if err != nil {
		t.Fatalf("Decrease: %v", err)
	}
	if before != 3 || after != 0 {
		t.Errorf("Decrease(3, 10) = %d -> %d, want 3 -> 0", before, after)
	}
}

func TestIncreaseDecreaseRoundTripMidRange(t *testing.T) {
	db := newTestDB(t)
	u := newTestUser(t, db, 50)
	svc := NewWaterService(db, nil)

	if _, _, err := svc.Increase(u.ID, 20); err != nil {
		t.Fatalf("Increase: %v", err)
	}
	_, after, err := svc.Decrease(u.ID, 20)
	if err != nil {
		t.Fatalf("Decrease: %v", err)
	}
	if after != 50 {
		t.Errorf("round trip from 50 ended at %d, want 50", after)
	}
}

func TestClampBoundaryIsNotIdempotent(t *testing.T) {
	db := newTestDB(t)
	u := newTestUser(t, db, 95)
	svc := NewWaterService(db, nil)

	_, after, err := svc.Increase(u.ID, 10)
	if err != nil {
		t.Fatalf("Increase: %v", err)
	}
	if after != 100 {
		t.Fatalf("Increase(95, 10) = %d, want 100", after)
	}

	_, after, err = svc.Decrease(u.ID, 10)
	if err != nil {
		t.Fatalf("Decrease: %v", err)
	}
	if after != 90 {
		t.Errorf("95 +10 -10 ended at %d, want 90 (clamp loses the overflow)", after)
	}
}

// --- raw-to-points scale ---

func TestPointsFor(t *testing.T) {
	cases := []struct {
		liters float64
		want   int
	}{
		{0, 0},
		{-5, 0},
		{1, 1},  // floor(0.5) would be 0; floored at 1
		{5, 2},  // short shower
		{25, 12},
		{40, 20},
	}
	for _, tc := range cases {
		if got := PointsFor(tc.liters); got != tc.want {
			t.Errorf("PointsFor(%v) = %d, want %d", tc.liters, got, tc.want)
		}
	}
}

// --- conservation composite ---

func TestConservationNoFlagsIsNoOp(t *testing.T) {
	db := newTestDB(t)
	u := newTestUser(t, db, 50)
	svc := NewWaterService(db, nil)

	_, err := svc.ApplyConservation(u.ID, ConservationInput{})
	if err != ErrNoActionSelected {
		t.Fatalf("ApplyConservation(no flags) error = %v, want ErrNoActionSelected", err)
	}

	level, err := svc.CurrentLevel(u.ID)
	if err != nil {
		t.Fatalf("CurrentLevel: %v", err)
	}
	if level != 50 {
		t.Errorf("level changed to %d on a no-op refill", level)
	}
	if entries := ledgerEntries(t, db, u.ID); len(entries) != 0 {
		t.Errorf("no-op refill wrote %d ledger entries", len(entries))
	}
}

func TestConservationSingleEcoAction(t *testing.T) {
	db := newTestDB(t)
	u := newTestUser(t, db, 50)
	svc := NewWaterService(db, nil)

	res, err := svc.ApplyConservation(u.ID, ConservationInput{ShortShower: true})
	if err != nil {
		t.Fatalf("ApplyConservation: %v", err)
	}
	// raw 5 L at x0.5 -> floor 2
	if res.Gained != 2 {
		t.Errorf("Gained = %d, want 2", res.Gained)
	}
	if res.Before != 50 || res.After != 52 {
		t.Errorf("level %d -> %d, want 50 -> 52", res.Before, res.After)
	}

	entries := ledgerEntries(t, db, u.ID)
	if len(entries) != 1 {
		t.Fatalf("got %d ledger entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Category != models.CategoryEco || e.Liters != 5 || e.Points != 2 {
		t.Errorf("entry = {%s %v %d}, want {eco 5 2}", e.Category, e.Liters, e.Points)
	}
	if e.RecordedAt.IsZero() {
		t.Error("RecordedAt not assigned")
	}
}

func TestConservationOneEntryPerSubAction(t *testing.T) {
	db := newTestDB(t)
	u := newTestUser(t, db, 50)
	svc := NewWaterService(db, nil)

	res, err := svc.ApplyConservation(u.ID, ConservationInput{
		ShortShower: true,
		Donation:    true,
		ReadArticle: true,
	})
	if err != nil {
		t.Fatalf("ApplyConservation: %v", err)
	}
	// raw 5 + 25 + 10 = 40 -> 20 points
	if res.Gained != 20 {
		t.Errorf("Gained = %d, want 20", res.Gained)
	}
	if res.After != 70 {
		t.Errorf("After = %d, want 70", res.After)
	}

	entries := ledgerEntries(t, db, u.ID)
	if len(entries) != 3 {
		t.Fatalf("got %d ledger entries, want 3 (one per sub-action)", len(entries))
	}
	wantCats := []string{models.CategoryEco, models.CategoryDonation, models.CategoryLearning}
	for i, e := range entries {
		if e.Category != wantCats[i] {
			t.Errorf("entry %d category = %s, want %s", i, e.Category, wantCats[i])
		}
	}

	want := "Water level increased thanks to eco-actions, your donation and learning activity!"
	if res.Summary != want {
		t.Errorf("Summary = %q, want %q", res.Summary, want)
	}
}

func TestConservationSummarySingleCategory(t *testing.T) {
	db := newTestDB(t)
	u := newTestUser(t, db, 50)
	svc := NewWaterService(db, nil)

	res, err := svc.ApplyConservation(u.ID, ConservationInput{Donation: true})
	if err != nil {
		t.Fatalf("ApplyConservation: %v", err)
	}
	if !strings.Contains(res.Summary, "your donation") || strings.Contains(res.Summary, "eco-actions") {
		t.Errorf("Summary = %q, want donation-only phrasing", res.Summary)
	}
}

func TestConservationClampsButRecordsNominalEntries(t *testing.T) {
	db := newTestDB(t)
	u := newTestUser(t, db, 95)
	svc := NewWaterService(db, nil)

	res, err := svc.ApplyConservation(u.ID, ConservationInput{ReuseGreywater: true})
	if err != nil {
		t.Fatalf("ApplyConservation: %v", err)
	}
	// nominal gain 10, but the level tops out at 100
	if res.Gained != 10 || res.After != 100 {
		t.Errorf("Gained = %d, After = %d, want 10 and 100", res.Gained, res.After)
	}
	entries := ledgerEntries(t, db, u.ID)
	if len(entries) != 1 || entries[0].Points != 10 {
		t.Errorf("entry points = %v, want the nominal 10 from the action table", entries)
	}
}

// --- chat depletion composite ---

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("drop ", n))
}

func TestChatDepletionHundredWords(t *testing.T) {
	db := newTestDB(t)
	u := newTestUser(t, db, 50)
	svc := NewWaterService(db, nil)

	res, err := svc.ApplyChatDepletion(u.ID, words(50), words(50))
	if err != nil {
		t.Fatalf("ApplyChatDepletion: %v", err)
	}
	if res.UserWords != 50 || res.ReplyWords != 50 || res.TotalWords != 100 {
		t.Errorf("word counts = %d/%d/%d, want 50/50/100", res.UserWords, res.ReplyWords, res.TotalWords)
	}
	if res.VolumeML != 519 {
		t.Errorf("VolumeML = %v, want 519 for 100 words", res.VolumeML)
	}
	if res.Before != 50 || res.After != 45 {
		t.Errorf("level %d -> %d, want 50 -> 45", res.Before, res.After)
	}

	entries := ledgerEntries(t, db, u.ID)
	if len(entries) != 1 {
		t.Fatalf("got %d ledger entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Category != models.CategoryDeplete || e.Points != -5 {
		t.Errorf("entry = {%s %d}, want {deplete -5}", e.Category, e.Points)
	}
	if e.Liters != -0.519 {
		t.Errorf("entry liters = %v, want -0.519", e.Liters)
	}
}

func TestChatDepletionIsFlatRegardlessOfLength(t *testing.T) {
	db := newTestDB(t)
	svc := NewWaterService(db, nil)

	u := newTestUser(t, db, 50)

	// zero words still costs 5
	res, err := svc.ApplyChatDepletion(u.ID, "", "")
	if err != nil {
		t.Fatalf("ApplyChatDepletion(empty): %v", err)
	}
	if res.TotalWords != 0 || res.VolumeML != 0 {
		t.Errorf("empty conversation counted %d words / %v mL", res.TotalWords, res.VolumeML)
	}
	if res.After != 45 {
		t.Errorf("After = %d, want 45", res.After)
	}

	// a thousand words costs exactly the same
	res, err = svc.ApplyChatDepletion(u.ID, words(500), words(500))
	if err != nil {
		t.Fatalf("ApplyChatDepletion(1000 words): %v", err)
	}
	if res.After != 40 {
		t.Errorf("After = %d, want 40 (flat -5 per conversation)", res.After)
	}
}

func TestChatDepletionClampsAtZero(t *testing.T) {
	db := newTestDB(t)
	u := newTestUser(t, db, 3)
	svc := NewWaterService(db, nil)

	res, err := svc.ApplyChatDepletion(u.ID, "hi", "hello there")
	if err != nil {
		t.Fatalf("ApplyChatDepletion: %v", err)
	}
	if res.After != 0 {
		t.Errorf("After = %d, want 0", res.After)
	}
	// the ledger still records the nominal -5
	entries := ledgerEntries(t, db, u.ID)
	if len(entries) != 1 || entries[0].Points != -5 {
		t.Errorf("entries = %v, want one entry with points -5", entries)
	}
}
