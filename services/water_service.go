package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"backend/models"
	"backend/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Level bounds for the gamified water stat.
const (
	LevelMin = 0
	LevelMax = 100
)

const (
	// pointScale converts raw liter totals into percentage points.
	pointScale = 0.5

	// Chat usage always costs a flat 5 points; the word-count volume is
	// recorded in the ledger for display only.
	chatDepletePoints = 5
	mlPer100Words     = 519.0
)

var ErrNoActionSelected = errors.New("no action selected")

// ConservationAction is one predefined stat-affecting behavior: a raw
// magnitude in domain units and the fixed percentage contribution recorded
// per ledger entry.
type ConservationAction struct {
	Key      string
	Label    string
	Category string
	Liters   float64
	Points   int
}

var EcoActions = []ConservationAction{
	{Key: "short_shower", Label: "Took a shorter shower", Category: models.CategoryEco, Liters: 5, Points: 2},
	{Key: "tap_off", Label: "Turned off the tap while brushing", Category: models.CategoryEco, Liters: 4, Points: 2},
	{Key: "full_loads", Label: "Ran full laundry loads only", Category: models.CategoryEco, Liters: 10, Points: 5},
	{Key: "fix_leak", Label: "Fixed a leaky faucet", Category: models.CategoryEco, Liters: 15, Points: 7},
	{Key: "reuse_greywater", Label: "Reused greywater for plants", Category: models.CategoryEco, Liters: 20, Points: 10},
}

var (
	DonationAction    = ConservationAction{Key: "donation", Label: "Donated to a water project", Category: models.CategoryDonation, Liters: 25, Points: 12}
	ReadArticleAction = ConservationAction{Key: "read_article", Label: "Read a conservation article", Category: models.CategoryLearning, Liters: 10, Points: 5}
	WatchVideoAction  = ConservationAction{Key: "watch_video", Label: "Watched a conservation video", Category: models.CategoryLearning, Liters: 15, Points: 7}
)

// Catalog lists every recordable conservation action in display order:
// eco-actions first, then donation, then learning.
func Catalog() []ConservationAction {
	out := make([]ConservationAction, 0, len(EcoActions)+3)
	out = append(out, EcoActions...)
	out = append(out, DonationAction, ReadArticleAction, WatchVideoAction)
	return out
}

// PointsFor applies the raw-to-percentage scale. Any strictly positive raw
// total yields at least 1 point.
func PointsFor(liters float64) int {
	if liters <= 0 {
		return 0
	}
	p := int(math.Floor(liters * pointScale))
	if p < 1 {
		p = 1
	}
	return p
}

func clampLevel(v int) int {
	if v < LevelMin {
		return LevelMin
	}
	if v > LevelMax {
		return LevelMax
	}
	return v
}

// ConservationInput is the flag set submitted from the refill page.
type ConservationInput struct {
	ShortShower    bool `json:"short_shower"`
	TapOff         bool `json:"tap_off"`
	FullLoads      bool `json:"full_loads"`
	FixLeak        bool `json:"fix_leak"`
	ReuseGreywater bool `json:"reuse_greywater"`
	Donation       bool `json:"donation"`
	ReadArticle    bool `json:"read_article"`
	WatchVideo     bool `json:"watch_video"`
}

func (in ConservationInput) selected() []ConservationAction {
	on := map[string]bool{
		"short_shower":    in.ShortShower,
		"tap_off":         in.TapOff,
		"full_loads":      in.FullLoads,
		"fix_leak":        in.FixLeak,
		"reuse_greywater": in.ReuseGreywater,
		"donation":        in.Donation,
		"read_article":    in.ReadArticle,
		"watch_video":     in.WatchVideo,
	}
	out := make([]ConservationAction, 0, 8)
	for _, a := range Catalog() {
		if on[a.Key] {
			out = append(out, a)
		}
	}
	return out
}

type ConservationResult struct {
	Before  int
	After   int
	Gained  int
	Summary string
}

type ChatDepletionResult struct {
	UserWords  int
	ReplyWords int
	TotalWords int
	VolumeML   float64
	Before     int
	After      int
}

type WaterService struct {
	db  *gorm.DB
	hub *WaterHub
}

// NewWaterService wires the mutator to the database and an optional realtime
// hub notified after every committed mutation.
func NewWaterService(db *gorm.DB, hub *WaterHub) *WaterService {
	return &WaterService{db: db, hub: hub}
}

func (s *WaterService) CurrentLevel(userID uint) (int, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.WaterLevel, nil
}

// Increase raises the level by a non-negative amount, clamped at 100.
// Clamping is never an error.
func (s *WaterService) Increase(userID uint, amount int) (before, after int, err error) {
	return s.adjust(userID, amount, nil)
}

// Decrease lowers the level by a non-negative amount, clamped at 0.
func (s *WaterService) Decrease(userID uint, amount int) (before, after int, err error) {
	return s.adjust(userID, -amount, nil)
}

// ApplyConservation applies the refill composite: sum the raw magnitudes of
// the selected actions, convert to a single clamped gain, then append one
// ledger entry per selected sub-action carrying its fixed contribution from
// the action table.
func (s *WaterService) ApplyConservation(userID uint, input ConservationInput) (*ConservationResult, error) {
	actions := input.selected()

	var raw float64
	for _, a := range actions {
		raw += a.Liters
	}
	gain := PointsFor(raw)
	if gain == 0 {
		return nil, ErrNoActionSelected
	}

	entries := make([]models.WaterLedgerEntry, 0, len(actions))
	for _, a := range actions {
		entries = append(entries, models.WaterLedgerEntry{
			Category: a.Category,
			Label:    a.Label,
			Liters:   a.Liters,
			Points:   a.Points,
		})
	}

	before, after, err := s.adjust(userID, gain, entries)
	if err != nil {
		return nil, err
	}

	return &ConservationResult{
		Before:  before,
		After:   after,
		Gained:  gain,
		Summary: summarize(actions),
	}, nil
}

// ApplyChatDepletion charges a conversation against the level. The
// word-count-derived volume goes into the ledger; the level always drops by
// the flat chat cost regardless of length.
func (s *WaterService) ApplyChatDepletion(userID uint, message, reply string) (*ChatDepletionResult, error) {
	userWords := utils.CountWords(message)
	replyWords := utils.CountWords(reply)
	total := userWords + replyWords
	volumeML := float64(total) * mlPer100Words / 100.0

	entry := models.WaterLedgerEntry{
		Category: models.CategoryDeplete,
		Label:    fmt.Sprintf("Chatbot conversation (%d words)", total),
		Liters:   -volumeML / 1000.0,
		Points:   -chatDepletePoints,
	}

	before, after, err := s.adjust(userID, -chatDepletePoints, []models.WaterLedgerEntry{entry})
	if err != nil {
		return nil, err
	}

	return &ChatDepletionResult{
		UserWords:  userWords,
		ReplyWords: replyWords,
		TotalWords: total,
		VolumeML:   volumeML,
		Before:     before,
		After:      after,
	}, nil
}

// adjust applies a signed delta to the user's level and appends the ledger
// entries in the same transaction. The user row is locked for the duration so
// two concurrent mutations for one account serialize instead of both reading
// the same pre-mutation level.
func (s *WaterService) adjust(userID uint, delta int, entries []models.WaterLedgerEntry) (before, after int, err error) {
	err = s.db.Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			// sqlite has no row locks; its transactions already serialize writers
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var user models.User
		if err := q.First(&user, userID).Error; err != nil {
			return err
		}

		before = user.WaterLevel
		after = clampLevel(before + delta)
		if err := tx.Model(&user).Update("water_level", after).Error; err != nil {
			return err
		}

		now := time.Now()
		for i := range entries {
			entries[i].UserID = userID
			entries[i].RecordedAt = now
			if err := tx.Create(&entries[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	if s.hub != nil {
		s.hub.BroadcastLevel(userID, after)
	}
	return before, after, nil
}

// summarize phrases which categories contributed, in eco, donation, learning
// order.
func summarize(actions []ConservationAction) string {
	names := map[string]string{
		models.CategoryEco:      "eco-actions",
		models.CategoryDonation: "your donation",
		models.CategoryLearning: "learning activity",
	}

	seen := map[string]bool{}
	parts := make([]string, 0, 3)
	for _, a := range actions {
		if !seen[a.Category] {
			seen[a.Category] = true
			parts = append(parts, names[a.Category])
		}
	}

	if len(parts) == 1 {
		return "Water level increased thanks to " + parts[0] + "!"
	}
	return "Water level increased thanks to " +
		strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1] + "!"
}
