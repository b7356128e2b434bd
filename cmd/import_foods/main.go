// Command import_foods loads the Argenfood nutrient catalog into the audit
// database. It accepts the published CSV export or the original PDF tables;
// rows are upserted by their Argenfood code so re-running the import refreshes
// values without duplicating entries.
package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nutriaudit/internal/config"
	"nutriaudit/internal/db"
	"nutriaudit/internal/nutrition"
	"nutriaudit/models"
)

// foodRecord is one catalog row decoupled from its source format.
type foodRecord struct {
	Code         int
	Name         string
	CategoryCode string
	CategoryName string
	Facts        nutrition.Facts
}

// nutrientColumns fixes the order and naming of the per-100g columns, shared
// by the CSV header lookup and the PDF positional parse.
var nutrientColumns = []struct {
	name   string
	assign func(*nutrition.Facts, decimal.NullDecimal)
}{
	{"energy_kcal", func(f *nutrition.Facts, v decimal.NullDecimal) { f.EnergyKcal = v }},
	{"water_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.WaterG = v }},
	{"protein_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.ProteinG = v }},
	{"total_fat_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.TotalFatG = v }},
	{"total_carbs_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.TotalCarbsG = v }},
	{"available_carbs_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.AvailableCarbsG = v }},
	{"fiber_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.FiberG = v }},
	{"ash_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.AshG = v }},
	{"sodium_mg", func(f *nutrition.Facts, v decimal.NullDecimal) { f.SodiumMg = v }},
	{"potassium_mg", func(f *nutrition.Facts, v decimal.NullDecimal) { f.PotassiumMg = v }},
	{"calcium_mg", func(f *nutrition.Facts, v decimal.NullDecimal) { f.CalciumMg = v }},
	{"phosphorus_mg", func(f *nutrition.Facts, v decimal.NullDecimal) { f.PhosphorusMg = v }},
	{"iron_mg", func(f *nutrition.Facts, v decimal.NullDecimal) { f.IronMg = v }},
	{"zinc_mg", func(f *nutrition.Facts, v decimal.NullDecimal) { f.ZincMg = v }},
	{"thiamin_mg", func(f *nutrition.Facts, v decimal.NullDecimal) { f.ThiaminMg = v }},
	{"riboflavin_mg", func(f *nutrition.Facts, v decimal.NullDecimal) { f.RiboflavinMg = v }},
	{"niacin_mg", func(f *nutrition.Facts, v decimal.NullDecimal) { f.NiacinMg = v }},
	{"vitamin_c_mg", func(f *nutrition.Facts, v decimal.NullDecimal) { f.VitaminCMg = v }},
	{"saturated_fat_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.SaturatedFatG = v }},
	{"monounsaturated_fat_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.MonounsatFatG = v }},
	{"polyunsaturated_fat_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.PolyunsatFatG = v }},
	{"cholesterol_mg", func(f *nutrition.Facts, v decimal.NullDecimal) { f.CholesterolMg = v }},
	{"myristic_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.MyristicG = v }},
	{"palmitic_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.PalmiticG = v }},
	{"stearic_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.StearicG = v }},
	{"oleic_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.OleicG = v }},
	{"linoleic_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.LinoleicG = v }},
	{"linolenic_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.LinolenicG = v }},
	{"epa_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.EPAG = v }},
	{"dha_g", func(f *nutrition.Facts, v decimal.NullDecimal) { f.DHAG = v }},
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: import_foods <catalog.csv|catalog.pdf>")
		os.Exit(2)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("catalog path must not be empty")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("locate catalog: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	records, err := readCatalog(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	imported, err := importRecords(database, records)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d of %d catalog rows\n", imported, len(records))
	return nil
}

func readCatalog(path string) ([]foodRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".pdf":
		return readPDF(path)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
}

func readCSV(path string) ([]foodRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.New("catalog has no data rows")
	}

	index := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{"code", "name"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("catalog is missing the %q column", required)
		}
	}

	var records []foodRecord
	for line, row := range rows[1:] {
		record, err := buildCSVRecord(row, index)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line+2, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func buildCSVRecord(row []string, index map[string]int) (foodRecord, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	code, err := strconv.Atoi(field("code"))
	if err != nil || code <= 0 {
		return foodRecord{}, fmt.Errorf("invalid code %q", field("code"))
	}
	name := field("name")
	if name == "" {
		return foodRecord{}, errors.New("name must not be empty")
	}

	record := foodRecord{
		Code:         code,
		Name:         name,
		CategoryCode: field("category_code"),
		CategoryName: field("category_name"),
	}
	for _, column := range nutrientColumns {
		column.assign(&record.Facts, parseValue(field(column.name)))
	}
	return record, nil
}

// readPDF parses the table text of the published PDF. A data line is an
// Argenfood code, the food name and one token per nutrient column; absent
// values appear as "-" or "tr" (trace).
func readPDF(path string) ([]foodRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text, err := extractTextFromPDF(data)
	if err != nil {
		return nil, err
	}

	var records []foodRecord
	for _, line := range strings.Split(text, "\n") {
		record, ok := parsePDFLine(line)
		if !ok {
			continue
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, errors.New("no catalog rows recognised in pdf text")
	}
	return records, nil
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

func parsePDFLine(line string) (foodRecord, bool) {
	tokens := strings.Fields(line)
	// code + at least one name token + the full nutrient tail
	if len(tokens) < len(nutrientColumns)+2 {
		return foodRecord{}, false
	}

	code, err := strconv.Atoi(tokens[0])
	if err != nil || code <= 0 {
		return foodRecord{}, false
	}

	tail := tokens[len(tokens)-len(nutrientColumns):]
	name := strings.Join(tokens[1:len(tokens)-len(nutrientColumns)], " ")
	if name == "" {
		return foodRecord{}, false
	}

	record := foodRecord{Code: code, Name: name}
	for i, column := range nutrientColumns {
		column.assign(&record.Facts, parseValue(tail[i]))
	}
	return record, true
}

// parseValue turns one catalog cell into a nullable decimal. Dashes and the
// "tr" trace marker mean the value was not determined.
func parseValue(raw string) decimal.NullDecimal {
	cleaned := strings.TrimSpace(raw)
	switch strings.ToLower(cleaned) {
	case "", "-", "tr", "nd", "n/d":
		return decimal.NullDecimal{}
	}
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: value, Valid: true}
}

func importRecords(database *gorm.DB, records []foodRecord) (int, error) {
	categories := make(map[string]uint)
	imported := 0

	for _, record := range records {
		if err := database.Transaction(func(tx *gorm.DB) error {
			categoryID, err := resolveCategory(tx, categories, record)
			if err != nil {
				return err
			}

			var existing models.FoodItem
			err = tx.Where("argenfood_code = ?", record.Code).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				item := models.FoodItem{
					ArgenfoodCode:  record.Code,
					Name:           record.Name,
					FoodCategoryID: categoryID,
					Facts:          record.Facts,
				}
				return tx.Create(&item).Error
			case err != nil:
				return err
			}

			existing.Name = record.Name
			if categoryID != 0 {
				existing.FoodCategoryID = categoryID
			}
			existing.Facts = record.Facts
			return tx.Save(&existing).Error
		}); err != nil {
			return imported, fmt.Errorf("import code %d (%s): %w", record.Code, record.Name, err)
		}
		imported++
	}
	return imported, nil
}

func resolveCategory(tx *gorm.DB, cache map[string]uint, record foodRecord) (uint, error) {
	code := strings.TrimSpace(record.CategoryCode)
	if code == "" {
		return 0, nil
	}
	if id, ok := cache[code]; ok {
		return id, nil
	}

	var category models.FoodCategory
	err := tx.Where("code = ?", code).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		category = models.FoodCategory{Code: code, Name: record.CategoryName}
		if category.Name == "" {
			category.Name = code
		}
		if err := tx.Create(&category).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	cache[code] = category.ID
	return category.ID, nil
}
