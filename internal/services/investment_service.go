package services

import (
	"context"
	"errors"
	"math"

	"gorm.io/gorm"

	apperrors "finsight/internal/errors"
	"finsight/internal/logger"
	"finsight/internal/models"
	"finsight/internal/pagination"
	"finsight/internal/quotes"
)

// investmentService handles holding-related business logic.
type investmentService struct {
	db             *gorm.DB
	accountService AccountServicer
	quoteSource    quotes.Source
}

// NewInvestmentService creates a new InvestmentServicer.
func NewInvestmentService(db *gorm.DB, accountService AccountServicer, quoteSource quotes.Source) InvestmentServicer {
	return &investmentService{
		db:             db,
		accountService: accountService,
		quoteSource:    quoteSource,
	}
}

// CreateHolding opens a position with an initial purchase. The purchase
// price becomes the average cost basis.
func (s *investmentService) CreateHolding(
	userID, accountID, symbol, name string,
	shares float64,
	pricePerShare int64,
	currency string,
) (*models.Holding, error) {
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required")
	}
	if shares <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "shares must be greater than zero")
	}
	if pricePerShare <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price per share must be greater than zero")
	}
	if currency == "" {
		currency = "USD"
	}

	account, err := s.accountService.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}
	if account.Type != models.AccountTypeInvestment {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account is not an investment account")
	}

	holding := &models.Holding{
		UserID:       userID,
		AccountID:    accountID,
		Symbol:       symbol,
		Name:         name,
		Shares:       shares,
		AvgCostBasis: pricePerShare,
		Currency:     currency,
	}

	if err := s.db.Create(holding).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return holding, nil
}

// GetUserHoldings returns a paginated list of holdings with current prices
// populated from the quote source. Unpriced holdings keep CurrentPrice zero.
func (s *investmentService) GetUserHoldings(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error) {
	page.Defaults()

	base := s.db.Model(&models.Holding{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var holdings []models.Holding
	if err := base.Scopes(pagination.Paginate(page)).Order("symbol").Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.populatePrices(ctx, holdings)

	result := pagination.NewPageResponse(holdings, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetHoldingByID returns a holding by ID if it belongs to the user.
func (s *investmentService) GetHoldingByID(userID, holdingID string) (*models.Holding, error) {
	var holding models.Holding
	if err := s.db.Where("id = ? AND user_id = ?", holdingID, userID).First(&holding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHoldingNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &holding, nil
}

// RecordPurchase adds shares, recomputing the average cost basis as the
// share-weighted mean of the old basis and the purchase price.
func (s *investmentService) RecordPurchase(userID, holdingID string, shares float64, pricePerShare int64) (*models.Holding, error) {
	if shares <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "shares must be greater than zero")
	}
	if pricePerShare <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price per share must be greater than zero")
	}

	holding, err := s.GetHoldingByID(userID, holdingID)
	if err != nil {
		return nil, err
	}

	newShares := holding.Shares + shares
	newBasis := (holding.Shares*float64(holding.AvgCostBasis) + shares*float64(pricePerShare)) / newShares

	if err := s.db.Model(holding).Updates(map[string]interface{}{
		"shares":         newShares,
		"avg_cost_basis": int64(math.Round(newBasis)),
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	holding.Shares = newShares
	holding.AvgCostBasis = int64(math.Round(newBasis))
	return holding, nil
}

// RecordSale removes shares. The per-share basis is unchanged by a sale.
func (s *investmentService) RecordSale(userID, holdingID string, shares float64, pricePerShare int64) (*models.Holding, error) {
	if shares <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "shares must be greater than zero")
	}

	holding, err := s.GetHoldingByID(userID, holdingID)
	if err != nil {
		return nil, err
	}

	if shares > holding.Shares {
		return nil, apperrors.ErrInsufficientShares
	}

	newShares := holding.Shares - shares
	if err := s.db.Model(holding).Update("shares", newShares).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	holding.Shares = newShares
	return holding, nil
}

// DeleteHolding soft-deletes a holding.
func (s *investmentService) DeleteHolding(userID, holdingID string) error {
	holding, err := s.GetHoldingByID(userID, holdingID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(holding).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetPortfolio aggregates all holdings into a valued summary. A quote
// failure degrades that holding to its cost basis instead of failing the
// whole summary.
func (s *investmentService) GetPortfolio(ctx context.Context, userID string) (*PortfolioSummary, error) {
	var holdings []models.Holding
	if err := s.db.Where("user_id = ?", userID).Order("symbol").Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	priced := s.populatePrices(ctx, holdings)

	summary := &PortfolioSummary{
		Holdings:      make([]HoldingSummary, 0, len(holdings)),
		IsDiversified: true,
	}

	values := make([]int64, len(holdings))
	for i := range holdings {
		h := &holdings[i]

		value := h.CurrentValue()
		if !priced[h.Symbol] {
			value = h.CostValue()
		}
		values[i] = value

		summary.TotalValue += value
		summary.TotalCost += h.CostValue()
		summary.Holdings = append(summary.Holdings, HoldingSummary{
			HoldingID:    h.ID,
			Symbol:       h.Symbol,
			Shares:       h.Shares,
			AvgCostBasis: h.AvgCostBasis,
			CurrentPrice: h.CurrentPrice,
			CurrentValue: value,
			Priced:       priced[h.Symbol],
		})
	}

	summary.TotalGainLoss = summary.TotalValue - summary.TotalCost
	if summary.TotalCost > 0 {
		summary.GainLossPct = float64(summary.TotalGainLoss) / float64(summary.TotalCost) * 100
	}

	summary.Concentration, summary.IsDiversified = PortfolioConcentration(values)
	if summary.TotalValue > 0 {
		topIdx := 0
		for i := range summary.Holdings {
			summary.Holdings[i].Weight = float64(values[i]) / float64(summary.TotalValue) * 100
			if values[i] > values[topIdx] {
				topIdx = i
			}
		}
		summary.TopHolding = summary.Holdings[topIdx].Symbol
	}

	return summary, nil
}

// populatePrices batch-fetches quotes for the holdings' symbols and fills in
// CurrentPrice. Returns the set of symbols that were successfully priced.
func (s *investmentService) populatePrices(ctx context.Context, holdings []models.Holding) map[string]bool {
	if len(holdings) == 0 {
		return map[string]bool{}
	}

	seen := make(map[string]bool, len(holdings))
	symbols := make([]string, 0, len(holdings))
	for i := range holdings {
		if !seen[holdings[i].Symbol] {
			seen[holdings[i].Symbol] = true
			symbols = append(symbols, holdings[i].Symbol)
		}
	}

	result, err := s.quoteSource.GetBatchQuotes(ctx, symbols)
	if err != nil {
		logger.Get().Warnw("batch quote lookup failed", "error", err)
	}

	priced := make(map[string]bool, len(result))
	for i := range holdings {
		if quote, ok := result[holdings[i].Symbol]; ok {
			holdings[i].CurrentPrice = quote.Price
			priced[holdings[i].Symbol] = true
		}
	}
	return priced
}
