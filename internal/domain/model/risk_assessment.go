package model

import "time"

// RiskMetric is a single display line inside a risk category.
type RiskMetric struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RiskCategory groups related metrics under a weighted sub-score.
// Categories are informational; only the composite score drives decisions.
type RiskCategory struct {
	Label   string       `json:"label"`
	Value   int          `json:"value"`
	Weight  int          `json:"weight"`
	Metrics []RiskMetric `json:"metrics"`
}

// RiskAssessment is the composite risk view for a borrower.
type RiskAssessment struct {
	BorrowerID string         `json:"borrower_id"`
	Score      int            `json:"score"`
	Categories []RiskCategory `json:"categories"`
	AssessedAt time.Time      `json:"assessed_at"`
}
