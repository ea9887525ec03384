package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"edupay/internal/models"
	"edupay/internal/repositories"
)

type service struct {
	payouts   repositories.PayoutRepository
	wallet    WalletLedger
	directory TutorDirectory
	config    Config
}

// NewService creates a new settlement service.
func NewService(payouts repositories.PayoutRepository, wallet WalletLedger, directory TutorDirectory, config Config) Service {
	if payouts == nil {
		panic("payout repository is required")
	}
	if wallet == nil {
		panic("wallet ledger is required")
	}
	return &service{
		payouts:   payouts,
		wallet:    wallet,
		directory: directory,
		config:    config,
	}
}

func (s *service) RecordSale(ctx context.Context, courseID, tutorID string, gross int64) (*models.Payout, error) {
	if gross <= 0 {
		return nil, ErrInvalidAmount
	}

	tutorShare, platformShare := Split(gross)
	payout := &models.Payout{
		TutorID:       tutorID,
		Kind:          models.PayoutKindCourse,
		SourceID:      courseID,
		Amount:        gross,
		TutorShare:    tutorShare,
		PlatformShare: platformShare,
		Status:        models.PayoutPending,
	}

	if err := s.payouts.Create(payout); err != nil {
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}
	return payout, nil
}

func (s *service) MonthlyPayouts(ctx context.Context, year int, month time.Month) ([]TutorPayoutGroup, error) {
	payouts, err := s.payouts.ListPending(s.window(year, month))
	if err != nil {
		return nil, err
	}

	groups := groupByTutor(payouts)
	for i := range groups {
		if s.directory == nil {
			continue
		}
		tutor, err := s.directory.GetUser(ctx, groups[i].TutorID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch tutor %s: %w", groups[i].TutorID, err)
		}
		groups[i].Tutor = tutor
	}
	return groups, nil
}

// Settle flips the payout to paid and credits the tutor's wallet. The
// conditional status update makes a second settle lose the transition;
// a failed credit reverts the flip so the payout is never left paid but
// uncredited.
func (s *service) Settle(ctx context.Context, payoutID uint) error {
	payout, err := s.payouts.GetByID(payoutID)
	if err != nil {
		if errors.Is(err, repositories.ErrPayoutNotFound) {
			return ErrPayoutNotFound
		}
		return err
	}

	won, err := s.payouts.MarkPaid(payout.ID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !won {
		return ErrPayoutAlreadyPaid
	}

	err = s.wallet.Credit(ctx, payout.TutorID, payout.TutorShare,
		models.SourceCourse, strconv.FormatUint(uint64(payout.ID), 10),
		"Payment for course completed")
	if err != nil {
		if rbErr := s.payouts.RevertPaid(payout.ID); rbErr != nil {
			log.Printf("CRITICAL: payout %d paid but uncredited and revert failed: %v", payout.ID, rbErr)
		}
		return fmt.Errorf("failed to credit tutor wallet: %w", err)
	}
	return nil
}

// Refund decrements the payout's shares by the reverse split. A refund
// for a sale with no payout is an expected case (wallet-funded purchases
// that never created one) and is not an error.
func (s *service) Refund(ctx context.Context, sourceID string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if _, err := s.payouts.GetBySourceID(sourceID); err != nil {
		if errors.Is(err, repositories.ErrPayoutNotFound) {
			log.Printf("no payout found for source %s, skipping refund adjustment", sourceID)
			return nil
		}
		return err
	}

	tutorShare, platformShare := ReverseSplit(amount)
	return s.payouts.ApplyRefund(sourceID, amount, tutorShare, platformShare)
}

func (s *service) Dashboard(ctx context.Context, year int, month time.Month) (*Dashboard, error) {
	groups, err := s.MonthlyPayouts(ctx, year, month)
	if err != nil {
		return nil, err
	}

	ranked := make([]TutorPayoutGroup, len(groups))
	copy(ranked, groups)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalTutorShare > ranked[j].TotalTutorShare
	})

	dashboard := &Dashboard{}
	for _, g := range ranked[:topN(len(ranked))] {
		dashboard.TopTutors = append(dashboard.TopTutors, TutorRank{
			TutorID:       g.TutorID,
			Tutor:         g.Tutor,
			TotalEarnings: g.TotalTutorShare,
		})
	}

	courseTotals := map[string]int64{}
	var courseOrder []string
	for _, g := range groups {
		dashboard.TotalRevenue.TotalAmount += g.TotalAmount
		dashboard.TotalRevenue.TotalTutorShare += g.TotalTutorShare
		dashboard.TotalRevenue.TotalPlatformShare += g.TotalPlatformShare

		for _, p := range g.Payouts {
			if _, seen := courseTotals[p.SourceID]; !seen {
				courseOrder = append(courseOrder, p.SourceID)
			}
			courseTotals[p.SourceID] += p.Amount
		}
	}

	sort.SliceStable(courseOrder, func(i, j int) bool {
		return courseTotals[courseOrder[i]] > courseTotals[courseOrder[j]]
	})
	for _, courseID := range courseOrder[:topN(len(courseOrder))] {
		dashboard.TopCourses = append(dashboard.TopCourses, CourseRank{
			CourseID:     courseID,
			TotalRevenue: courseTotals[courseID],
		})
	}

	return dashboard, nil
}

func (s *service) TutorDashboard(ctx context.Context, tutorID string, year int, month time.Month) (*TutorDashboard, error) {
	payouts, err := s.payouts.ListByTutor(tutorID, s.window(year, month))
	if err != nil {
		return nil, err
	}

	groups := groupByCourse(payouts)
	dashboard := &TutorDashboard{Courses: groups}
	for _, g := range groups {
		dashboard.TotalRevenue.TotalAmount += g.TotalAmount
		dashboard.TotalRevenue.TotalTutorShare += g.TotalTutorShare
		dashboard.TotalRevenue.TotalPlatformShare += g.TotalPlatformShare
	}

	ranked := make([]CourseGroup, len(groups))
	copy(ranked, groups)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalAmount > ranked[j].TotalAmount
	})
	for _, g := range ranked[:topN(len(ranked))] {
		dashboard.TopCourses = append(dashboard.TopCourses, CourseRank{
			CourseID:     g.CourseID,
			TotalRevenue: g.TotalAmount,
		})
	}

	return dashboard, nil
}

func (s *service) window(year int, month time.Month) *repositories.MonthWindow {
	if !s.config.MonthFilter {
		return nil
	}
	w := repositories.NewMonthWindow(year, month)
	return &w
}

// groupByTutor preserves first-seen order so downstream sorts break ties
// by store iteration order.
func groupByTutor(payouts []models.Payout) []TutorPayoutGroup {
	index := map[string]int{}
	var groups []TutorPayoutGroup
	for _, p := range payouts {
		i, ok := index[p.TutorID]
		if !ok {
			i = len(groups)
			index[p.TutorID] = i
			groups = append(groups, TutorPayoutGroup{TutorID: p.TutorID})
		}
		groups[i].TotalAmount += p.Amount
		groups[i].TotalTutorShare += p.TutorShare
		groups[i].TotalPlatformShare += p.PlatformShare
		groups[i].Payouts = append(groups[i].Payouts, p)
	}
	return groups
}

func groupByCourse(payouts []models.Payout) []CourseGroup {
	index := map[string]int{}
	var groups []CourseGroup
	for _, p := range payouts {
		i, ok := index[p.SourceID]
		if !ok {
			i = len(groups)
			index[p.SourceID] = i
			groups = append(groups, CourseGroup{CourseID: p.SourceID})
		}
		groups[i].TotalAmount += p.Amount
		groups[i].TotalTutorShare += p.TutorShare
		groups[i].TotalPlatformShare += p.PlatformShare
		groups[i].Payouts = append(groups[i].Payouts, p)
	}
	return groups
}

func topN(n int) int {
	if n > 5 {
		return 5
	}
	return n
}
