package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/dmryasin/compval/internal/model"
)

var comparableHeader = []string{
	"No", "Source", "Address", "District", "Neighborhood",
	"Area (m2)", "Total Price", "Unit Price", "Rooms", "Floor", "Age", "Error",
}

// WriteXLSX writes the comparable appendix workbook: one sheet with every
// comparable (failed rows included) and one with the estimate summary.
func (r *Renderer) WriteXLSX(path string, subject model.Subject, result *model.AppraisalResult) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("Comparables")
	if err != nil {
		return eris.Wrap(err, "report: add comparables sheet")
	}

	header := sheet.AddRow()
	for _, h := range comparableHeader {
		header.AddCell().SetString(h)
	}

	for _, c := range result.Comparables {
		row := sheet.AddRow()
		row.AddCell().SetInt(c.SourceID)
		row.AddCell().SetString(c.SourcePath)
		row.AddCell().SetString(c.FieldString("address"))
		row.AddCell().SetString(c.FieldString("district"))
		row.AddCell().SetString(c.FieldString("neighborhood"))
		setFloat(row.AddCell(), c.Area)
		setFloat(row.AddCell(), c.TotalPrice)
		setFloat(row.AddCell(), c.UnitPrice)
		row.AddCell().SetString(c.FieldString("room_count"))
		row.AddCell().SetString(c.FieldString("floor"))
		row.AddCell().SetString(c.FieldString("building_age"))
		row.AddCell().SetString(c.Error)
	}

	if err := addEstimateSheet(f, subject, result.Estimate); err != nil {
		return err
	}

	return eris.Wrapf(f.Save(path), "report: save workbook %s", path)
}

func addEstimateSheet(f *xlsx.File, subject model.Subject, est model.ValuationEstimate) error {
	sheet, err := f.AddSheet("Estimate")
	if err != nil {
		return eris.Wrap(err, "report: add estimate sheet")
	}

	add := func(label string, value any) {
		row := sheet.AddRow()
		row.AddCell().SetString(label)
		switch v := value.(type) {
		case *float64:
			setFloat(row.AddCell(), v)
		case int:
			row.AddCell().SetInt(v)
		case string:
			row.AddCell().SetString(v)
		}
	}

	add("Subject address", subject.String("address"))
	add("Subject area (m2)", est.SubjectArea)
	add("Comparables total", est.TotalComparables)
	add("Comparables used", est.UsedComparables)
	add("Mean unit price", est.MeanUnitPrice)
	add("Min unit price", est.MinUnitPrice)
	add("Max unit price", est.MaxUnitPrice)
	add("Estimated value", est.EstimatedValue)
	add("Value range low", est.ValueRangeLow)
	add("Value range high", est.ValueRangeHigh)
	add("Method", est.Method)
	add("Confidence", est.Confidence)
	return nil
}

// setFloat writes a number cell, or "-" for an unknown value.
func setFloat(cell *xlsx.Cell, v *float64) {
	if v == nil {
		cell.SetString(placeholder)
		return
	}
	cell.SetFloat(*v)
}
