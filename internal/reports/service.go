// Package reports answers the grouped statistical queries of the audit
// programme: the dashboard summary, visit series, per-institution reports,
// rankings and multi-institution comparisons. All operations are read-only;
// only the filter-free dashboard summary is cached.
package reports

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nutriaudit/internal/cache"
	applog "nutriaudit/internal/log"
	"nutriaudit/internal/nutrition"
	"nutriaudit/models"
)

var (
	// ErrInstitutionNotFound is returned when a report names an unknown institution.
	ErrInstitutionNotFound = errors.New("reports: institution not found")
	// ErrInvalidLimit rejects non-positive ranking limits.
	ErrInvalidLimit = errors.New("reports: limit must be a positive integer")
	// ErrInvalidDateRange rejects ranges whose start falls after their end.
	ErrInvalidDateRange = errors.New("reports: start date must not be after end date")
)

const recentVisitLimit = 10

// Filter carries the optional report filters. A nil field means unbounded or
// default; each operation documents which fields it reads.
type Filter struct {
	StartDate      *time.Time
	EndDate        *time.Time
	Limit          *int
	InstitutionIDs []uint
}

func (f Filter) validateRange() error {
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// MealTypeCount is one row of a visits-per-meal-type grouping.
type MealTypeCount struct {
	MealType string `json:"meal_type"`
	Count    int64  `json:"count"`
}

// KindCount is one row of an institutions-per-kind grouping.
type KindCount struct {
	Kind  string `json:"kind"`
	Count int64  `json:"count"`
}

// DashboardSummary is the filter-free overview cached for five minutes.
type DashboardSummary struct {
	ActiveInstitutions int64           `json:"active_institutions"`
	TotalVisits        int64           `json:"total_visits"`
	TotalDishes        int64           `json:"total_dishes"`
	VisitsByMealType   []MealTypeCount `json:"visits_by_meal_type"`
	InstitutionsByKind []KindCount     `json:"institutions_by_kind"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// DayCount is one row of the visits-by-period series.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// NutrientAverages maps nutrition field names to the field-wise mean of dish
// totals. A nil value means no dishes matched, which is reported as absent,
// never as zero.
type NutrientAverages map[string]*decimal.Decimal

// InstitutionSummary identifies an institution inside a report payload.
type InstitutionSummary struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// VisitSummary is one of the most recent visits inside an institution report.
type VisitSummary struct {
	ID           uint   `json:"id"`
	Date         string `json:"date"`
	MealType     string `json:"meal_type"`
	Observations string `json:"observations"`
}

// InstitutionReport is the detailed per-institution view.
type InstitutionReport struct {
	Institution      InstitutionSummary `json:"institution"`
	TotalVisits      int64              `json:"total_visits"`
	VisitsByMealType []MealTypeCount    `json:"visits_by_meal_type"`
	TotalDishes      int64              `json:"total_dishes"`
	Averages         NutrientAverages   `json:"averages"`
	RecentVisits     []VisitSummary     `json:"recent_visits"`
}

// RankingRow is one institution in the visit-count ranking.
type RankingRow struct {
	InstitutionID uint   `json:"institution_id" gorm:"column:institution_id"`
	Name          string `json:"name" gorm:"column:name"`
	Kind          string `json:"kind" gorm:"column:kind"`
	VisitCount    int64  `json:"visit_count" gorm:"column:visit_count"`
}

// ComparisonRow is one institution in a side-by-side comparison. Institutions
// with no matching visits still get a row with zero counts and absent
// averages.
type ComparisonRow struct {
	InstitutionID uint             `json:"institution_id"`
	Name          string           `json:"name"`
	TotalVisits   int64            `json:"total_visits"`
	TotalDishes   int64            `json:"total_dishes"`
	Averages      NutrientAverages `json:"averages"`
}

// Service computes the report operations against the audit database. The
// cache handle is injected; a nil store disables caching entirely.
type Service struct {
	db    *gorm.DB
	cache cache.Store
	ttl   time.Duration
	now   func() time.Time
}

// New builds a report service with the given cache handle and dashboard TTL.
// A non-positive ttl falls back to the default five minutes.
func New(database *gorm.DB, store cache.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = cache.DefaultDashboardTTL
	}
	return &Service{db: database, cache: store, ttl: ttl, now: time.Now}
}

// DashboardSummary returns the filter-free overview, served from cache while
// fresh. Cache trouble is never fatal: the summary is computed fresh and the
// failure only logged.
func (s *Service) DashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	if s.cache != nil {
		value, ok, err := s.cache.Get(cache.DashboardKey)
		if err != nil {
			applog.Warn(ctx, "dashboard cache read failed, computing fresh", "error", err)
		} else if ok {
			if summary, valid := value.(*DashboardSummary); valid {
				return summary, nil
			}
		}
	}

	summary, err := s.computeDashboard(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(cache.DashboardKey, summary, s.ttl); err != nil {
			applog.Warn(ctx, "dashboard cache population skipped", "error", err)
		}
	}
	return summary, nil
}

// InvalidateDashboard drops the cached dashboard entry. Mutating handlers
// call it before responding so the next read is never staler than the
// mutation that caused it.
func (s *Service) InvalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(cache.DashboardKey); err != nil {
		applog.Warn(ctx, "dashboard cache invalidation failed", "error", err)
	}
}

func (s *Service) computeDashboard(ctx context.Context) (*DashboardSummary, error) {
	database := s.db.WithContext(ctx)
	summary := &DashboardSummary{GeneratedAt: s.now().UTC()}

	if err := database.Model(&models.Institution{}).
		Where("active = ?", true).
		Count(&summary.ActiveInstitutions).Error; err != nil {
		return nil, err
	}

	if err := database.Model(&models.Visit{}).Count(&summary.TotalVisits).Error; err != nil {
		return nil, err
	}

	if err := database.Model(&models.Dish{}).Count(&summary.TotalDishes).Error; err != nil {
		return nil, err
	}

	if err := database.Model(&models.Visit{}).
		Select("meal_type, count(*) as count").
		Group("meal_type").
		Order("count desc, meal_type asc").
		Scan(&summary.VisitsByMealType).Error; err != nil {
		return nil, err
	}

	if err := database.Model(&models.Institution{}).
		Where("active = ?", true).
		Select("kind, count(*) as count").
		Group("kind").
		Order("count desc, kind asc").
		Scan(&summary.InstitutionsByKind).Error; err != nil {
		return nil, err
	}

	return summary, nil
}

// VisitsByPeriod counts visits grouped by calendar date, ascending. An absent
// start or end leaves that side of the range unbounded.
func (s *Service) VisitsByPeriod(ctx context.Context, filter Filter) ([]DayCount, error) {
	if err := filter.validateRange(); err != nil {
		return nil, err
	}

	var rows []struct {
		VisitDate time.Time
		Count     int64
	}
	query := s.db.WithContext(ctx).Model(&models.Visit{}).
		Select("visit_date, count(*) as count").
		Group("visit_date").
		Order("visit_date asc")
	if err := applyDateRange(query, filter).Scan(&rows).Error; err != nil {
		return nil, err
	}

	series := make([]DayCount, 0, len(rows))
	for _, row := range rows {
		series = append(series, DayCount{Date: row.VisitDate.Format("2006-01-02"), Count: row.Count})
	}
	return series, nil
}

// InstitutionReport builds the detailed view for one institution, restricted
// to the optional date range.
func (s *Service) InstitutionReport(ctx context.Context, institutionID uint, filter Filter) (*InstitutionReport, error) {
	if err := filter.validateRange(); err != nil {
		return nil, err
	}

	database := s.db.WithContext(ctx)

	var institution models.Institution
	if err := database.First(&institution, institutionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstitutionNotFound
		}
		return nil, err
	}

	var visits []models.Visit
	query := database.Where("institution_id = ?", institution.ID).
		Order("visit_date desc, id asc")
	if err := applyDateRange(query, filter).Find(&visits).Error; err != nil {
		return nil, err
	}

	dishes, err := s.dishesOfVisits(ctx, visits)
	if err != nil {
		return nil, err
	}

	report := &InstitutionReport{
		Institution: InstitutionSummary{
			ID:   institution.ID,
			Code: institution.Code,
			Name: institution.Name,
			Kind: institution.Kind,
		},
		TotalVisits:      int64(len(visits)),
		VisitsByMealType: countMealTypes(visits),
		TotalDishes:      int64(len(dishes)),
		Averages:         averageTotals(dishes),
		RecentVisits:     recentVisits(visits),
	}
	return report, nil
}

// Ranking orders institutions by visit count descending, ties broken by name
// ascending, truncated to the limit (default 10).
func (s *Service) Ranking(ctx context.Context, filter Filter) ([]RankingRow, error) {
	if err := filter.validateRange(); err != nil {
		return nil, err
	}

	limit := 10
	if filter.Limit != nil {
		if *filter.Limit <= 0 {
			return nil, ErrInvalidLimit
		}
		limit = *filter.Limit
	}

	rows := make([]RankingRow, 0, limit)
	query := s.db.WithContext(ctx).Model(&models.Visit{}).
		Select("visits.institution_id as institution_id, institutions.name as name, institutions.kind as kind, count(*) as visit_count").
		Joins("JOIN institutions ON institutions.id = visits.institution_id").
		Group("visits.institution_id, institutions.name, institutions.kind").
		Order("visit_count desc, institutions.name asc").
		Limit(limit)
	if err := applyDateRange(query, filter).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Comparison builds one row per requested institution within the optional
// date range. The work is a fixed three queries however many institutions are
// requested; ids that name no institution are omitted. Rows come back ordered
// by institution name ascending.
func (s *Service) Comparison(ctx context.Context, filter Filter) ([]ComparisonRow, error) {
	if err := filter.validateRange(); err != nil {
		return nil, err
	}
	if len(filter.InstitutionIDs) == 0 {
		return []ComparisonRow{}, nil
	}

	database := s.db.WithContext(ctx)

	var institutions []models.Institution
	if err := database.Where("id IN ?", filter.InstitutionIDs).
		Order("name asc").
		Find(&institutions).Error; err != nil {
		return nil, err
	}
	if len(institutions) == 0 {
		return []ComparisonRow{}, nil
	}

	ids := make([]uint, 0, len(institutions))
	for _, institution := range institutions {
		ids = append(ids, institution.ID)
	}

	var visits []models.Visit
	query := database.Where("institution_id IN ?", ids)
	if err := applyDateRange(query, filter).Find(&visits).Error; err != nil {
		return nil, err
	}

	dishes, err := s.dishesOfVisits(ctx, visits)
	if err != nil {
		return nil, err
	}

	visitInstitution := make(map[uint]uint, len(visits))
	visitCounts := make(map[uint]int64, len(institutions))
	for _, visit := range visits {
		visitInstitution[visit.ID] = visit.InstitutionID
		visitCounts[visit.InstitutionID]++
	}

	dishesByInstitution := make(map[uint][]models.Dish, len(institutions))
	for _, dish := range dishes {
		institutionID := visitInstitution[dish.VisitID]
		dishesByInstitution[institutionID] = append(dishesByInstitution[institutionID], dish)
	}

	rows := make([]ComparisonRow, 0, len(institutions))
	for _, institution := range institutions {
		matched := dishesByInstitution[institution.ID]
		rows = append(rows, ComparisonRow{
			InstitutionID: institution.ID,
			Name:          institution.Name,
			TotalVisits:   visitCounts[institution.ID],
			TotalDishes:   int64(len(matched)),
			Averages:      averageTotals(matched),
		})
	}
	return rows, nil
}

func (s *Service) dishesOfVisits(ctx context.Context, visits []models.Visit) ([]models.Dish, error) {
	if len(visits) == 0 {
		return nil, nil
	}
	visitIDs := make([]uint, 0, len(visits))
	for _, visit := range visits {
		visitIDs = append(visitIDs, visit.ID)
	}
	var dishes []models.Dish
	if err := s.db.WithContext(ctx).
		Where("visit_id IN ?", visitIDs).
		Find(&dishes).Error; err != nil {
		return nil, err
	}
	return dishes, nil
}

func applyDateRange(query *gorm.DB, filter Filter) *gorm.DB {
	if filter.StartDate != nil {
		query = query.Where("visit_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("visit_date <= ?", *filter.EndDate)
	}
	return query
}

func countMealTypes(visits []models.Visit) []MealTypeCount {
	counts := make(map[string]int64, len(models.MealTypes))
	for _, visit := range visits {
		counts[visit.MealType]++
	}
	rows := make([]MealTypeCount, 0, len(counts))
	for mealType, count := range counts {
		rows = append(rows, MealTypeCount{MealType: mealType, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].MealType < rows[j].MealType
	})
	return rows
}

func recentVisits(visits []models.Visit) []VisitSummary {
	limit := recentVisitLimit
	if len(visits) < limit {
		limit = len(visits)
	}
	rows := make([]VisitSummary, 0, limit)
	for _, visit := range visits[:limit] {
		rows = append(rows, VisitSummary{
			ID:           visit.ID,
			Date:         visit.Date.Format("2006-01-02"),
			MealType:     visit.MealType,
			Observations: visit.Observations,
		})
	}
	return rows
}

// averageTotals computes the field-wise mean of stored dish totals with exact
// decimals. Averages over zero dishes come back nil per field.
func averageTotals(dishes []models.Dish) NutrientAverages {
	averages := make(NutrientAverages, len(nutrition.Fields))
	if len(dishes) == 0 {
		for _, field := range nutrition.Fields {
			averages[field.Name] = nil
		}
		return averages
	}

	count := decimal.NewFromInt(int64(len(dishes)))
	for _, field := range nutrition.Fields {
		sum := decimal.Zero
		for i := range dishes {
			sum = sum.Add(*field.Value(&dishes[i].Totals))
		}
		mean := sum.DivRound(count, nutrition.TotalsPrecision.Places(field.Kind))
		value := mean
		averages[field.Name] = &value
	}
	return averages
}
