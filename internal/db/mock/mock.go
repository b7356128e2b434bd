package mock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "nutriaudit/internal/log"
	"nutriaudit/internal/nutrition"
	"nutriaudit/models"
)

// New returns an in-memory sqlite database seeded with representative audit data.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:nutriaudit-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.FoodCategory{},
		&models.FoodItem{},
		&models.Institution{},
		&models.Visit{},
		&models.Dish{},
		&models.Ingredient{},
		&models.User{},
	); err != nil {
		return nil, err
	}

	if err := seed(ctx, db); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func nd(value string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(value), Valid: true}
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte("auditoria"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:         "Marina Auditor",
		Email:        "marina@nutriaudit.app",
		PasswordHash: string(password),
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	cereals := models.FoodCategory{Code: "cereals", Name: "Cereals and derivatives"}
	legumes := models.FoodCategory{Code: "legumes", Name: "Legumes and derivatives"}
	dairy := models.FoodCategory{Code: "dairy", Name: "Milk and dairy products"}
	for _, category := range []*models.FoodCategory{&cereals, &legumes, &dairy} {
		if err := db.WithContext(ctx).Create(category).Error; err != nil {
			return err
		}
	}

	rice := models.FoodItem{
		ArgenfoodCode:  101,
		Name:           "White rice, cooked",
		FoodCategoryID: cereals.ID,
		Facts: nutrition.Facts{
			EnergyKcal:      nd("130"),
			WaterG:          nd("68.5"),
			ProteinG:        nd("2.7"),
			TotalFatG:       nd("0.3"),
			TotalCarbsG:     nd("28.6"),
			AvailableCarbsG: nd("28.2"),
			FiberG:          nd("0.4"),
			SodiumMg:        nd("1.2"),
		},
	}
	beans := models.FoodItem{
		ArgenfoodCode:  205,
		Name:           "Black beans, cooked",
		FoodCategoryID: legumes.ID,
		Facts: nutrition.Facts{
			EnergyKcal:  nd("90"),
			WaterG:      nd("70.1"),
			ProteinG:    nd("6"),
			TotalFatG:   nd("0.5"),
			TotalCarbsG: nd("16.6"),
			FiberG:      nd("6.1"),
			IronMg:      nd("1.5"),
		},
	}
	milk := models.FoodItem{
		ArgenfoodCode:  310,
		Name:           "Whole milk, fluid",
		FoodCategoryID: dairy.ID,
		Facts: nutrition.Facts{
			EnergyKcal:      nd("61"),
			WaterG:          nd("88"),
			ProteinG:        nd("3.1"),
			TotalFatG:       nd("3.3"),
			TotalCarbsG:     nd("4.9"),
			AvailableCarbsG: nd("4.9"),
			CalciumMg:       nd("113"),
		},
	}
	for _, food := range []*models.FoodItem{&rice, &beans, &milk} {
		if err := db.WithContext(ctx).Create(food).Error; err != nil {
			return err
		}
	}

	school := models.Institution{
		Code:         "ESC-014",
		Name:         "Escuela 14",
		Kind:         models.InstitutionKindSchool,
		Address:      "Av. Rivadavia 2450",
		Neighborhood: "Balvanera",
		District:     "Comuna 3",
		Active:       true,
	}
	childcare := models.Institution{
		Code:         "CDI-003",
		Name:         "CDI Los Alamos",
		Kind:         models.InstitutionKindChildcare,
		Address:      "Calle Moreno 812",
		Neighborhood: "San Telmo",
		District:     "Comuna 1",
		Active:       true,
	}
	for _, institution := range []*models.Institution{&school, &childcare} {
		if err := db.WithContext(ctx).Create(institution).Error; err != nil {
			return err
		}
	}

	lunch := models.Visit{
		InstitutionID: school.ID,
		Date:          time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		MealType:      models.MealTypeLunch,
		Observations:  "Full service observed, portions weighed at plating.",
	}
	snack := models.Visit{
		InstitutionID: childcare.ID,
		Date:          time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC),
		MealType:      models.MealTypeSnack,
	}
	for _, visit := range []*models.Visit{&lunch, &snack} {
		if err := db.WithContext(ctx).Create(visit).Error; err != nil {
			return err
		}
	}

	riceAndBeans := models.Dish{
		VisitID:  lunch.ID,
		Name:     "Arroz con porotos",
		DishType: models.DishTypeMain,
	}
	milkCup := models.Dish{
		VisitID:  snack.ID,
		Name:     "Vaso de leche",
		DishType: models.DishTypeBeverage,
	}
	for _, dish := range []*models.Dish{&riceAndBeans, &milkCup} {
		if err := db.WithContext(ctx).Create(dish).Error; err != nil {
			return err
		}
	}

	ingredients := []struct {
		dish     *models.Dish
		food     *models.FoodItem
		quantity string
	}{
		{&riceAndBeans, &rice, "150"},
		{&riceAndBeans, &beans, "80"},
		{&milkCup, &milk, "200"},
	}
	for position, entry := range ingredients {
		quantity := decimal.RequireFromString(entry.quantity)
		contribution, err := nutrition.Contribution(quantity, entry.food.Facts)
		if err != nil {
			return err
		}
		pos := position
		ingredient := models.Ingredient{
			DishID:       entry.dish.ID,
			FoodItemID:   entry.food.ID,
			Quantity:     quantity,
			Unit:         "g",
			Position:     &pos,
			Contribution: contribution,
		}
		if err := db.WithContext(ctx).Create(&ingredient).Error; err != nil {
			return err
		}
	}

	// Totals are derived the same way the running service derives them, so the
	// seeded rows already satisfy the consistency invariant.
	for _, dish := range []*models.Dish{&riceAndBeans, &milkCup} {
		var rows []models.Ingredient
		if err := db.WithContext(ctx).
			Where("dish_id = ?", dish.ID).
			Order("position asc, id asc").
			Find(&rows).Error; err != nil {
			return err
		}
		contributions := make([]nutrition.Vector, len(rows))
		for i := range rows {
			contributions[i] = rows[i].Contribution
		}
		dish.Totals = nutrition.SumContributions(contributions)
		if err := db.WithContext(ctx).Save(dish).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
