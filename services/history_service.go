package services

import (
	"backend/models"

	"gorm.io/gorm"
)

type HistoryService struct{ db *gorm.DB }

func NewHistoryService(db *gorm.DB) *HistoryService { return &HistoryService{db: db} }

type HistoryPoint struct {
	Label  string `json:"label"`
	Action string `json:"action,omitempty"`
	Value  int    `json:"value"`
}

type ActionProgress struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Category string  `json:"category"`
	Count    int64   `json:"count"`
	Liters   float64 `json:"liters"`
	Points   int     `json:"points"`
}

// WaterHistory rebuilds the level-over-time series from the ledger, anchored
// to the account's stored level. The replay runs backwards from the current
// value: the synthetic starting point is deliberately left unclamped and each
// forward step clamps, so the series always ends at ground truth even when a
// recorded delta disagrees with the effect that was actually applied.
func (s *HistoryService) WaterHistory(userID uint) ([]HistoryPoint, int, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, 0, err
	}
	current := user.WaterLevel

	var entries []models.WaterLedgerEntry
	if err := s.db.
		Where("user_id = ?", userID).
		Order("recorded_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	if len(entries) == 0 {
		return []HistoryPoint{{Label: "Current", Value: current}}, current, nil
	}

	totalChange := 0
	for _, e := range entries {
		totalChange += e.Points
	}

	// synthetic start; may sit outside [0,100]
	level := current - totalChange

	points := make([]HistoryPoint, 0, len(entries))
	for _, e := range entries {
		level = clampLevel(level + e.Points)
		points = append(points, HistoryPoint{
			Label:  e.RecordedAt.Format("Jan 2 15:04"),
			Action: e.Label,
			Value:  level,
		})
	}

	// force the series to end at the authoritative level
	points[len(points)-1].Value = current

	return points, current, nil
}

// Progress aggregates the ledger per action. Every catalog action is always
// present (zeroed when never performed); chat depletions collapse into one
// trailing row.
func (s *HistoryService) Progress(userID uint) ([]ActionProgress, error) {
	type row struct {
		Category string
		Label    string
		Count    int64
		Liters   float64
		Points   int
	}

	var rows []row
	if err := s.db.Model(&models.WaterLedgerEntry{}).
		Select("category, label, COUNT(*) AS count, SUM(liters) AS liters, SUM(points) AS points").
		Where("user_id = ?", userID).
		Group("category, label").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	byLabel := map[string]row{}
	var deplete row
	for _, r := range rows {
		if r.Category == models.CategoryDeplete {
			deplete.Count += r.Count
			deplete.Liters += r.Liters
			deplete.Points += r.Points
			continue
		}
		agg := byLabel[r.Label]
		agg.Count += r.Count
		agg.Liters += r.Liters
		agg.Points += r.Points
		byLabel[r.Label] = agg
	}

	out := make([]ActionProgress, 0, 9)
	for _, a := range Catalog() {
		r := byLabel[a.Label]
		out = append(out, ActionProgress{
			Key:      a.Key,
			Label:    a.Label,
			Category: a.Category,
			Count:    r.Count,
			Liters:   r.Liters,
			Points:   r.Points,
		})
	}

	if deplete.Count > 0 {
		out = append(out, ActionProgress{
			Key:      "chatbot",
			Label:    "Chatbot usage",
			Category: models.CategoryDeplete,
			Count:    deplete.Count,
			Liters:   deplete.Liters,
			Points:   deplete.Points,
		})
	}

	return out, nil
}
