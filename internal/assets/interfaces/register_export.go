package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	assets "medequip-cloud/internal/assets/domain"
)

// BuildAssetRegisterXLSX renders the asset register workbook.
func BuildAssetRegisterXLSX(fleet []assets.Asset, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	registerSheet := "assets"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(registerSheet)

	statusCounts := make(map[assets.Status]int)
	highRisk := 0
	for _, asset := range fleet {
		statusCounts[asset.Status]++
		if asset.RiskScore >= 70 {
			highRisk++
		}
	}

	_ = f.SetCellValue(summarySheet, "A1", "Asset Register")
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", generatedAt.UTC().Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Total Assets")
	_ = f.SetCellValue(summarySheet, "B4", len(fleet))
	_ = f.SetCellValue(summarySheet, "A5", "Running")
	_ = f.SetCellValue(summarySheet, "B5", statusCounts[assets.StatusRunning])
	_ = f.SetCellValue(summarySheet, "A6", "Down")
	_ = f.SetCellValue(summarySheet, "B6", statusCounts[assets.StatusDown])
	_ = f.SetCellValue(summarySheet, "A7", "In Maintenance")
	_ = f.SetCellValue(summarySheet, "B7", statusCounts[assets.StatusMaintenance])
	_ = f.SetCellValue(summarySheet, "A8", "High Risk (>= 70)")
	_ = f.SetCellValue(summarySheet, "B8", highRisk)

	headers := []string{"ID", "Tag", "Name", "Model", "Manufacturer", "Location", "Status", "Purchase Date", "Operating Hours", "Risk Score"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(registerSheet, cell, header)
	}
	for i, asset := range fleet {
		row := i + 2
		purchased := ""
		if !asset.PurchaseDate.IsZero() {
			purchased = asset.PurchaseDate.UTC().Format("2006-01-02")
		}
		values := []any{
			asset.ID,
			asset.TagID,
			asset.Name,
			asset.Model,
			asset.Manufacturer,
			asset.LocationID,
			string(asset.Status),
			purchased,
			asset.OperatingHours,
			asset.RiskScore,
		}
		for col, value := range values {
			cell := fmt.Sprintf("%c%d", 'A'+col, row)
			_ = f.SetCellValue(registerSheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
