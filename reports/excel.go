package reports

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aquastream/collections_backend/models"
	"github.com/aquastream/collections_backend/utils"
	"github.com/xuri/excelize/v2"
)

// ExportCollectionsXLSX renders all records in the inclusive date range into
// an XLSX workbook and returns the serialized bytes.
func ExportCollectionsXLSX(ctx context.Context, from time.Time, to time.Time) ([]byte, error) {
	records, err := models.CollectionsByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Collections"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Date", "Device", "Machine", "Collector", "Banknotes", "Coins", "Total", "Note"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		f.SetCellStyle(sheet, "A1", "H1", headerStyle)
	}

	loc := utils.FleetLocation()
	for row, rec := range records {
		nik := ""
		if rec.CollectorNik != nil {
			nik = *rec.CollectorNik
		}
		banknotes, _ := rec.SumBanknotes.Float64()
		coins, _ := rec.SumCoins.Float64()
		total, _ := rec.TotalSum.Float64()

		values := []interface{}{
			rec.Date.In(loc).Format("2006-01-02 15:04:05"),
			rec.DeviceId,
			rec.Machine,
			nik,
			banknotes,
			coins,
			total,
			rec.Note,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	totalsRow := len(records) + 2
	totalCell, _ := excelize.CoordinatesToCellName(1, totalsRow)
	f.SetCellValue(sheet, totalCell, fmt.Sprintf("Total records: %d", len(records)))

	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "B", "D", 18)
	f.SetColWidth(sheet, "H", "H", 40)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
