package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ksaito/hatchobori-lunch-backend/config"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/model"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/repository"
	"github.com/ksaito/hatchobori-lunch-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

// XLSX column layout (first row is the header):
//
//	0: 店名
//	1: カテゴリー（カンマ区切り、先頭が主カテゴリ）
//	2: 評価 (0.0-5.0)
//	3: 価格下限（円）
//	4: 価格上限（円）
//	5: 距離（例: 徒歩3分）
//	6: 住所
//	7: 食べログURL
//	8: 公式サイトURL
//	9: Google Map URL
//	10: 説明
type restaurantRow struct {
	restaurant    model.Restaurant
	categoryNames []string
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	if err := db.Seed(); err != nil {
		log.Fatal("Failed to seed default categories:", err)
	}

	categoryRepo := repository.NewCategoryRepository(db.GetDB())
	restaurantRepo := repository.NewRestaurantRepository(db.GetDB())

	// カテゴリー名 → ID のマップを作る
	categories, err := categoryRepo.FindAll()
	if err != nil {
		log.Fatal("Failed to load categories:", err)
	}
	categoryIDsByName := make(map[string]string, len(categories))
	for _, cat := range categories {
		categoryIDsByName[cat.Name] = cat.ID
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, err := readRestaurantsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total restaurants to import: %d\n", len(rows))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	imported := 0
	skipped := 0
	for _, row := range rows {
		categoryIDs := make([]string, 0, len(row.categoryNames))
		unknown := []string{}
		for _, name := range row.categoryNames {
			if id, ok := categoryIDsByName[name]; ok {
				categoryIDs = append(categoryIDs, id)
			} else {
				unknown = append(unknown, name)
			}
		}

		if len(unknown) > 0 {
			fmt.Printf("  Warning: %s references unknown categories: %v\n", row.restaurant.Name, unknown)
		}
		if len(categoryIDs) == 0 {
			fmt.Printf("  Skipped %s: no known categories\n", row.restaurant.Name)
			skipped++
			continue
		}

		restaurant := row.restaurant
		if err := restaurantRepo.CreateWithCategories(&restaurant, categoryIDs); err != nil {
			fmt.Printf("  Failed to import %s: %v\n", restaurant.Name, err)
			skipped++
			continue
		}
		imported++

		if imported%50 == 0 {
			fmt.Printf("Imported %d restaurants...\n", imported)
		}
	}

	fmt.Println("Import completed!")
	fmt.Printf("  Imported: %d\n", imported)
	fmt.Printf("  Skipped:  %d\n", skipped)
}

func readRestaurantsFromXLSX(filePath string) ([]restaurantRow, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var result []restaurantRow
	seen := make(map[string]bool)
	skippedCount := 0

	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}

		name := cell(row, 0)
		categoriesRaw := cell(row, 1)
		if name == "" || categoriesRaw == "" {
			skippedCount++
			continue
		}

		// 店名+住所で重複排除
		address := cell(row, 6)
		key := name + "|" + address
		if seen[key] {
			skippedCount++
			continue
		}
		seen[key] = true

		categoryNames := []string{}
		for _, part := range strings.Split(categoriesRaw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				categoryNames = append(categoryNames, trimmed)
			}
		}

		restaurant := model.Restaurant{
			Name:         name,
			Rating:       parseFloatCell(cell(row, 2)),
			PriceMin:     parseIntCell(cell(row, 3)),
			PriceMax:     parseIntCell(cell(row, 4)),
			Distance:     cell(row, 5),
			Address:      address,
			TabelogURL:   optionalCell(cell(row, 7)),
			WebsiteURL:   optionalCell(cell(row, 8)),
			GoogleMapURL: optionalCell(cell(row, 9)),
			Description:  cell(row, 10),
			IsActive:     true,
		}

		result = append(result, restaurantRow{
			restaurant:    restaurant,
			categoryNames: categoryNames,
		})
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Valid restaurants: %d\n", len(result))
	fmt.Printf("  Skipped rows: %d\n", skippedCount)

	return result, nil
}

func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

func optionalCell(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func parseFloatCell(value string) *float64 {
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseIntCell(value string) *int {
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &parsed
}
