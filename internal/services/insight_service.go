package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "finsight/internal/errors"
	"finsight/internal/logger"
	"finsight/internal/models"
)

const (
	// insightFreshness is how long a generated batch is served before
	// insights are recomputed.
	insightFreshness = 24 * time.Hour

	// anomalyLookbackMonths is how many prior calendar months feed the
	// per-category spending baseline.
	anomalyLookbackMonths = 3

	// anomalyRatio is the this-month-to-baseline multiple above which a
	// category counts as a spending anomaly.
	anomalyRatio = 1.5

	// subscriptionCostFloor is the monthly cost in cents below which a
	// subscription is too cheap to bother flagging.
	subscriptionCostFloor = 1000

	// subscriptionListMax caps how many flagged subscriptions are named in
	// the insight message.
	subscriptionListMax = 3

	// savingsRateTarget and savingsRateFloor bound the savings-rate rule:
	// below the floor urges improvement, at or above the target praises,
	// and the band in between stays silent.
	savingsRateTarget = 20
	savingsRateFloor  = 10
)

// insightService evaluates heuristic rules over aggregated metrics and
// manages the generated-insight cache.
type insightService struct {
	db            *gorm.DB
	analytics     *analyticsService
	investments   InvestmentServicer
	subscriptions SubscriptionServicer
}

// NewInsightService creates a new InsightServicer.
func NewInsightService(db *gorm.DB, investments InvestmentServicer, subscriptions SubscriptionServicer) InsightServicer {
	return &insightService{
		db:            db,
		analytics:     &analyticsService{db: db, investments: investments},
		investments:   investments,
		subscriptions: subscriptions,
	}
}

// GetInsights returns the user's non-dismissed insights, regenerating the
// batch when the cached one is older than 24 hours or absent.
func (s *insightService) GetInsights(ctx context.Context, userID string) ([]models.Insight, error) {
	cutoff := time.Now().Add(-insightFreshness)

	var count int64
	if err := s.db.Model(&models.Insight{}).
		Where("user_id = ? AND generated_at > ?", userID, cutoff).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if count == 0 {
		return s.GenerateInsights(ctx, userID)
	}

	var insights []models.Insight
	if err := s.db.
		Where("user_id = ? AND generated_at > ? AND is_dismissed = ?", userID, cutoff, false).
		Order("rank").
		Find(&insights).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return insights, nil
}

// GenerateInsights evaluates every rule, ranks the results, and replaces the
// user's cached batch. A single rule's data-fetch failure skips that rule;
// the rest still evaluate.
func (s *insightService) GenerateInsights(ctx context.Context, userID string) ([]models.Insight, error) {
	now := time.Now()
	insights := s.evaluateRules(ctx, userID, now)

	// Stable sort keeps rule-evaluation order among equal priorities.
	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Priority.Weight() > insights[j].Priority.Weight()
	})

	for i := range insights {
		insights[i].UserID = userID
		insights[i].Rank = i + 1
		insights[i].GeneratedAt = now
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Where("user_id = ?", userID).Delete(&models.Insight{}).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if len(insights) > 0 {
			if txErr := tx.Create(&insights).Error; txErr != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return insights, nil
}

// DismissInsight flags an insight so it no longer appears in reads. The row
// stays in place until the next regeneration replaces the batch.
func (s *insightService) DismissInsight(userID, insightID string) error {
	result := s.db.Model(&models.Insight{}).
		Where("id = ? AND user_id = ?", insightID, userID).
		Update("is_dismissed", true)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrInsightNotFound
	}
	return nil
}

// evaluateRules runs the rule catalogue in fixed order. Each rule appends at
// most one insight; a rule whose inputs cannot be fetched is logged and
// skipped.
func (s *insightService) evaluateRules(ctx context.Context, userID string, now time.Time) []models.Insight {
	insights := make([]models.Insight, 0, 5)
	log := logger.Get()

	if insight, err := s.spendingAnomalyRule(userID, now); err != nil {
		log.Warnw("spending anomaly rule skipped", "user_id", userID, "error", err)
	} else if insight != nil {
		insights = append(insights, *insight)
	}

	if insight, err := s.subscriptionRule(userID); err != nil {
		log.Warnw("subscription rule skipped", "user_id", userID, "error", err)
	} else if insight != nil {
		insights = append(insights, *insight)
	}

	budgetInsight, savingsInsight, err := s.budgetAndSavingsRules(userID, now)
	if err != nil {
		log.Warnw("budget and savings rules skipped", "user_id", userID, "error", err)
	} else {
		if budgetInsight != nil {
			insights = append(insights, *budgetInsight)
		}
		if savingsInsight != nil {
			insights = append(insights, *savingsInsight)
		}
	}

	if insight, err := s.concentrationRule(ctx, userID); err != nil {
		log.Warnw("portfolio concentration rule skipped", "user_id", userID, "error", err)
	} else if insight != nil {
		insights = append(insights, *insight)
	}

	return insights
}

// spendingAnomalyRule compares each expense category's current-month total
// to its mean over the prior months and surfaces the single worst spike
// above the anomaly ratio.
func (s *insightService) spendingAnomalyRule(userID string, now time.Time) (*models.Insight, error) {
	current, err := spentByCategory(s.db, userID, CurrentMonth(now))
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, nil
	}

	// Baseline is the mean over prior months in which the category saw any
	// spend; at least two such months are required before a spike counts.
	baselineTotal := make(map[string]int64)
	baselineMonths := make(map[string]int)
	for n := 1; n <= anomalyLookbackMonths; n++ {
		monthly, mErr := spentByCategory(s.db, userID, MonthsAgo(now, n))
		if mErr != nil {
			return nil, mErr
		}
		for categoryID, amount := range monthly {
			baselineTotal[categoryID] += amount
			baselineMonths[categoryID]++
		}
	}

	var (
		worstCategoryID string
		worstIncrease   float64
		worstSpent      int64
		worstAverage    float64
	)
	for categoryID, spent := range current {
		if baselineMonths[categoryID] < 2 {
			continue
		}
		average := float64(baselineTotal[categoryID]) / float64(baselineMonths[categoryID])
		if average <= 0 {
			continue
		}
		if float64(spent) <= anomalyRatio*average {
			continue
		}
		increase := (float64(spent) - average) / average * 100
		if increase > worstIncrease {
			worstCategoryID = categoryID
			worstIncrease = increase
			worstSpent = spent
			worstAverage = average
		}
	}

	if worstCategoryID == "" {
		return nil, nil
	}

	var category models.Category
	if err := s.db.Where("id = ?", worstCategoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &models.Insight{
		Type:     models.InsightTypeWarning,
		Priority: models.InsightPriorityHigh,
		Title:    fmt.Sprintf("Spending spike in %s", category.Name),
		Message: fmt.Sprintf(
			"You've spent %s on %s this month, %.0f%% above your %s monthly average.",
			formatCents(worstSpent), category.Name, worstIncrease, formatCents(int64(worstAverage)),
		),
		ActionLabel: "Review transactions",
		ActionURL:   "/transactions?category_id=" + worstCategoryID,
		Metadata: fmt.Sprintf(`{"category_id":%q,"percent_increase":%.1f}`,
			worstCategoryID, worstIncrease),
	}, nil
}

// subscriptionRule flags active subscriptions above the cost floor as
// candidates for cancellation.
func (s *insightService) subscriptionRule(userID string) (*models.Insight, error) {
	subs, err := s.subscriptions.ActiveSubscriptions(userID)
	if err != nil {
		return nil, err
	}

	var (
		total int64
		names []string
	)
	for i := range subs {
		if subs[i].MonthlyCost <= subscriptionCostFloor {
			continue
		}
		total += subs[i].MonthlyCost
		if len(names) < subscriptionListMax {
			names = append(names, subs[i].ServiceName)
		}
	}
	if total == 0 {
		return nil, nil
	}

	message := fmt.Sprintf("You're paying %s/month for subscriptions like %s. Cancelling unused ones frees that up for savings.",
		formatCents(total), joinNames(names))

	return &models.Insight{
		Type:        models.InsightTypeOpportunity,
		Priority:    models.InsightPriorityMedium,
		Title:       "Review your subscriptions",
		Message:     message,
		ActionLabel: "Review subscriptions",
		ActionURL:   "/subscriptions",
	}, nil
}

// budgetAndSavingsRules evaluates the budget-overage and savings-rate rules.
// They share the current-month aggregates, so they are fetched together.
func (s *insightService) budgetAndSavingsRules(userID string, now time.Time) (budgetInsight, savingsInsight *models.Insight, err error) {
	window := CurrentMonth(now)

	spent, err := spentByCategory(s.db, userID, window)
	if err != nil {
		return nil, nil, err
	}

	var budgets []models.Budget
	if err := s.db.Preload("Categories.Category").
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&budgets).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var overBudget []string
	tracked := 0
	for i := range budgets {
		for j := range budgets[i].Categories {
			alloc := &budgets[i].Categories[j]
			tracked++
			if spent[alloc.CategoryID] > alloc.BudgetedAmount {
				overBudget = append(overBudget, alloc.Category.Name)
			}
		}
	}

	switch {
	case len(overBudget) > 0:
		budgetInsight = &models.Insight{
			Type:     models.InsightTypeAlert,
			Priority: models.InsightPriorityHigh,
			Title:    "Over budget this month",
			Message: fmt.Sprintf("You've exceeded your budget in %s. Reining these in now avoids a bigger shortfall at month end.",
				joinNames(overBudget)),
			ActionLabel: "View budgets",
			ActionURL:   "/budgets",
		}
	case tracked > 0:
		budgetInsight = &models.Insight{
			Type:     models.InsightTypeTip,
			Priority: models.InsightPriorityLow,
			Title:    "Budgets on track",
			Message:  "Every budget category is within its allocation so far this month. Keep it up.",
		}
	}

	income, expenses, err := s.analytics.sumIncomeExpense(userID, window)
	if err != nil {
		return budgetInsight, nil, err
	}
	rate := SavingsRate(income, expenses)

	switch {
	case income > 0 && rate < savingsRateFloor:
		// Dollar gap to the target rate, floored at zero for display.
		gap := income*savingsRateTarget/100 - (income - expenses)
		if gap < 0 {
			gap = 0
		}
		savingsInsight = &models.Insight{
			Type:     models.InsightTypeTip,
			Priority: models.InsightPriorityMedium,
			Title:    "Savings rate below 10%",
			Message: fmt.Sprintf("You're saving %d%% of your income this month. Setting aside another %s would get you to the 20%% target.",
				rate, formatCents(gap)),
			ActionLabel: "Set a goal",
			ActionURL:   "/goals",
		}
	case income > 0 && rate >= savingsRateTarget:
		savingsInsight = &models.Insight{
			Type:     models.InsightTypeTip,
			Priority: models.InsightPriorityLow,
			Title:    "Strong savings rate",
			Message:  fmt.Sprintf("You're saving %d%% of your income this month, at or above the 20%% target. Nice work.", rate),
		}
	}

	return budgetInsight, savingsInsight, nil
}

// concentrationRule flags a portfolio dominated by a single position.
func (s *insightService) concentrationRule(ctx context.Context, userID string) (*models.Insight, error) {
	portfolio, err := s.investments.GetPortfolio(ctx, userID)
	if err != nil {
		return nil, err
	}
	if portfolio.IsDiversified || portfolio.TopHolding == "" {
		return nil, nil
	}

	return &models.Insight{
		Type:     models.InsightTypeRecommendation,
		Priority: models.InsightPriorityMedium,
		Title:    "Portfolio concentration risk",
		Message: fmt.Sprintf("%s makes up %.0f%% of your portfolio. Spreading new contributions across other positions reduces single-stock risk.",
			portfolio.TopHolding, portfolio.Concentration),
		ActionLabel: "View portfolio",
		ActionURL:   "/investments/portfolio",
		Metadata: fmt.Sprintf(`{"symbol":%q,"concentration":%.1f}`,
			portfolio.TopHolding, portfolio.Concentration),
	}, nil
}

// formatCents renders a cent amount as dollars, e.g. 123456 -> "$1234.56".
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// joinNames renders a short name list as prose ("A", "A and B", "A, B and C").
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		result := names[0]
		for _, n := range names[1 : len(names)-1] {
			result += ", " + n
		}
		return result + " and " + names[len(names)-1]
	}
}
