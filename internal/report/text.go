// Package report renders an appraisal result for people: a plain-text
// valuation summary and an XLSX comparable appendix. Unknown numbers render
// as "-", never as 0, so a missing figure can't be mistaken for a free
// property.
package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/dmryasin/compval/internal/model"
)

const placeholder = "-"

// Renderer formats numbers for a specific locale. The default "tr" locale
// prints 1234567.89 as 1.234.567,89.
type Renderer struct {
	printer *message.Printer
}

// NewRenderer builds a renderer for a BCP 47 locale tag. Unparseable tags
// fall back to Turkish, the locale of the source documents.
func NewRenderer(locale string) *Renderer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Turkish
	}
	return &Renderer{printer: message.NewPrinter(tag)}
}

// Money formats a money amount with thousands grouping, or "-" when unknown.
func (r *Renderer) Money(v *float64) string {
	if v == nil {
		return placeholder
	}
	return r.printer.Sprintf("%v TL", number.Decimal(*v, number.MaxFractionDigits(2)))
}

// Area formats an area in m2, or "-" when unknown.
func (r *Renderer) Area(v *float64) string {
	if v == nil {
		return placeholder
	}
	return r.printer.Sprintf("%v m2", number.Decimal(*v, number.MaxFractionDigits(2)))
}

// Text renders the full plain-text appraisal report.
func (r *Renderer) Text(subject model.Subject, result *model.AppraisalResult) string {
	var b strings.Builder
	est := result.Estimate

	b.WriteString("COMPARATIVE VALUATION REPORT\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	b.WriteString("Subject property\n")
	for _, key := range []string{"address", "city", "district", "neighborhood"} {
		if v := subject.String(key); v != "" {
			fmt.Fprintf(&b, "  %-14s %s\n", key+":", v)
		}
	}
	fmt.Fprintf(&b, "  %-14s %s\n\n", "area:", r.Area(est.SubjectArea))

	b.WriteString("Estimate\n")
	fmt.Fprintf(&b, "  %-20s %s\n", "estimated value:", r.Money(est.EstimatedValue))
	fmt.Fprintf(&b, "  %-20s %s to %s\n", "value range:", r.Money(est.ValueRangeLow), r.Money(est.ValueRangeHigh))
	fmt.Fprintf(&b, "  %-20s %s\n", "mean unit price:", r.Money(est.MeanUnitPrice))
	fmt.Fprintf(&b, "  %-20s %s  /  %s\n", "unit price span:", r.Money(est.MinUnitPrice), r.Money(est.MaxUnitPrice))
	fmt.Fprintf(&b, "  %-20s %d of %d\n", "comparables used:", est.UsedComparables, est.TotalComparables)
	fmt.Fprintf(&b, "  %-20s %s\n", "method:", est.Method)
	if est.Confidence != "" {
		fmt.Fprintf(&b, "  %-20s %s\n", "confidence:", est.Confidence)
	}
	b.WriteString("\n")

	if est.Degraded() {
		b.WriteString("WARNING: no usable comparable evidence; the estimate above is not\n")
		b.WriteString("backed by the statistical pass.\n\n")
	}
	if result.Dropped > 0 {
		fmt.Fprintf(&b, "NOTE: %d source(s) beyond the batch cap were not processed.\n\n", result.Dropped)
	}
	if result.TimedOut {
		b.WriteString("NOTE: the batch time budget expired; this is a partial result.\n\n")
	}

	if est.Commentary != "" {
		b.WriteString("Commentary\n")
		fmt.Fprintf(&b, "  %s\n\n", est.Commentary)
	}

	if len(est.Adjustments) > 0 {
		b.WriteString("Adjustments\n")
		for _, a := range est.Adjustments {
			fmt.Fprintf(&b, "  #%d %s: %s -> %s", a.ComparableNo, a.Address, r.Money(a.UnitPrice), r.Money(a.AdjustedUnitPrice))
			if a.Note != "" {
				fmt.Fprintf(&b, " (%s)", a.Note)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Comparables\n")
	for _, c := range result.Comparables {
		if c.Failed() {
			fmt.Fprintf(&b, "  #%d %s: FAILED (%s)\n", c.SourceID, c.SourcePath, c.Error)
			continue
		}
		fmt.Fprintf(&b, "  #%d %s: %s, %s, unit %s\n",
			c.SourceID, c.SourcePath, r.Area(c.Area), r.Money(c.TotalPrice), r.Money(c.UnitPrice))
		if addr := c.FieldString("address"); addr != "" {
			fmt.Fprintf(&b, "      %s\n", addr)
		}
	}

	return b.String()
}
