package settlement

import (
	"context"
	"encoding/json"
	"time"

	"edupay/internal/models"
)

// Service owns the payout lifecycle: creation on sale, settlement to the
// tutor's wallet, refund adjustment, and the aggregations built on top.
type Service interface {
	RecordSale(ctx context.Context, courseID, tutorID string, gross int64) (*models.Payout, error)
	MonthlyPayouts(ctx context.Context, year int, month time.Month) ([]TutorPayoutGroup, error)
	Settle(ctx context.Context, payoutID uint) error
	Refund(ctx context.Context, sourceID string, amount int64) error
	Dashboard(ctx context.Context, year int, month time.Month) (*Dashboard, error)
	TutorDashboard(ctx context.Context, tutorID string, year int, month time.Month) (*TutorDashboard, error)
}

// WalletLedger is the slice of the wallet service settlement needs.
type WalletLedger interface {
	Credit(ctx context.Context, userID string, amount int64, source, sourceID, description string) error
}

// TutorDirectory fetches tutor profiles from the identity peer. The
// profile body is forwarded to clients as-is.
type TutorDirectory interface {
	GetUser(ctx context.Context, userID string) (json.RawMessage, error)
}

// Config controls optional aggregation behavior.
type Config struct {
	// MonthFilter scopes payout aggregation to the requested calendar
	// month. Off by default.
	MonthFilter bool
}

// TutorPayoutGroup is one tutor's pending payouts with running totals.
type TutorPayoutGroup struct {
	TutorID            string          `json:"tutor_id"`
	TotalTutorShare    int64           `json:"total_tutor_share"`
	TotalPlatformShare int64           `json:"total_platform_share"`
	TotalAmount        int64           `json:"total_amount"`
	Payouts            []models.Payout `json:"payouts"`
	Tutor              json.RawMessage `json:"tutor,omitempty"`
}

// Totals aggregates revenue across a payout set.
type Totals struct {
	TotalAmount        int64 `json:"total_amount"`
	TotalTutorShare    int64 `json:"total_tutor_share"`
	TotalPlatformShare int64 `json:"total_platform_share"`
}

// TutorRank is one entry in the top-tutors board.
type TutorRank struct {
	TutorID       string          `json:"tutor_id"`
	Tutor         json.RawMessage `json:"tutor,omitempty"`
	TotalEarnings int64           `json:"total_earnings"`
}

// CourseRank is one entry in the top-courses board.
type CourseRank struct {
	CourseID     string `json:"course_id"`
	TotalRevenue int64  `json:"total_revenue"`
}

// Dashboard is the admin revenue overview.
type Dashboard struct {
	TopTutors    []TutorRank  `json:"top_tutors"`
	TopCourses   []CourseRank `json:"top_courses"`
	TotalRevenue Totals       `json:"total_revenue"`
}

// CourseGroup is one course's payouts for a single tutor.
type CourseGroup struct {
	CourseID           string          `json:"course_id"`
	TotalAmount        int64           `json:"total_amount"`
	TotalTutorShare    int64           `json:"total_tutor_share"`
	TotalPlatformShare int64           `json:"total_platform_share"`
	Payouts            []models.Payout `json:"payouts"`
}

// TutorDashboard is the per-tutor revenue overview.
type TutorDashboard struct {
	TotalRevenue Totals        `json:"total_revenue"`
	TopCourses   []CourseRank  `json:"top_courses"`
	Courses      []CourseGroup `json:"courses"`
}
