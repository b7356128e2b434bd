package handlers

import (
	"fmt"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nutriaudit/internal/cache"
	"nutriaudit/internal/db"
	"nutriaudit/internal/nutrition"
	"nutriaudit/internal/reports"
	"nutriaudit/internal/rollup"
	"nutriaudit/models"
)

func withTestSessionManager(t *testing.T) (*scs.SessionManager, func()) {
	t.Helper()
	original := sessionManager
	sm := scs.New()
	sessionManager = sm
	return sm, func() {
		sessionManager = original
	}
}

// withTestEnvironment wires the handler package against a fresh in-memory
// database, rollup coordinator and report service, restoring the previous
// wiring on cleanup.
func withTestEnvironment(t *testing.T) *gorm.DB {
	t.Helper()

	originalDB := database
	originalCoordinator := coordinator
	originalReporter := reporter

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(testDB); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	database = testDB
	reporter = reports.New(testDB, cache.NewMemory(), time.Minute)
	coordinator = rollup.New(testDB, reporter.InvalidateDashboard)

	t.Cleanup(func() {
		database = originalDB
		coordinator = originalCoordinator
		reporter = originalReporter
		if sqlDB, err := testDB.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return testDB
}

func mustNullDec(value string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(value), Valid: true}
}

type testFixture struct {
	institution models.Institution
	visit       models.Visit
	dish        models.Dish
	rice        models.FoodItem
	beans       models.FoodItem
}

func seedAuditData(t *testing.T, db *gorm.DB) testFixture {
	t.Helper()

	category := models.FoodCategory{Code: "cereals", Name: "Cereals and derivatives"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("failed to create category: %v", err)
	}

	fx := testFixture{
		rice: models.FoodItem{
			ArgenfoodCode:  101,
			Name:           "White rice, cooked",
			FoodCategoryID: category.ID,
			Facts: nutrition.Facts{
				EnergyKcal: mustNullDec("130"),
				ProteinG:   mustNullDec("2.7"),
			},
		},
		beans: models.FoodItem{
			ArgenfoodCode:  205,
			Name:           "Black beans, cooked",
			FoodCategoryID: category.ID,
			Facts: nutrition.Facts{
				EnergyKcal: mustNullDec("90"),
				ProteinG:   mustNullDec("6"),
			},
		},
	}
	for _, food := range []*models.FoodItem{&fx.rice, &fx.beans} {
		if err := db.Create(food).Error; err != nil {
			t.Fatalf("failed to create food: %v", err)
		}
	}

	fx.institution = models.Institution{Code: "ESC-014", Name: "Escuela 14", Kind: models.InstitutionKindSchool, Active: true}
	if err := db.Create(&fx.institution).Error; err != nil {
		t.Fatalf("failed to create institution: %v", err)
	}

	fx.visit = models.Visit{
		InstitutionID: fx.institution.ID,
		Date:          time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		MealType:      models.MealTypeLunch,
	}
	if err := db.Create(&fx.visit).Error; err != nil {
		t.Fatalf("failed to create visit: %v", err)
	}

	fx.dish = models.Dish{VisitID: fx.visit.ID, Name: "Arroz con porotos", DishType: models.DishTypeMain}
	if err := db.Create(&fx.dish).Error; err != nil {
		t.Fatalf("failed to create dish: %v", err)
	}
	return fx
}
