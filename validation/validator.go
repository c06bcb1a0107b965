package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/globalbike/SalesWarehouseETL/cleanse"
	"github.com/globalbike/SalesWarehouseETL/extract"
)

// Represents one source row after cleansing and type conversion. Every row
// is annotated, whether or not it is error-free, so the builders always see
// the full input stream.
type AnnotatedRow struct {
	LineNum int
	Fields  map[string]string //cleansed raw fields

	OrderNumber   *int64
	Customer      *int64
	SalesQuantity *int64
	Date          *time.Time
	Revenue       *decimal.Decimal
	Discount      *decimal.Decimal
	RevenueUSD    *decimal.Decimal
	DiscountUSD   *decimal.Decimal
	CostsUSD      *decimal.Decimal

	Corrections []string //auto-fixed values, informational
	Errors      []string //validation errors, row still flows downstream
}

// convenience accessor for a cleansed raw field, trimmed of whitespace
func (r AnnotatedRow) Field(name string) string {
	return strings.TrimSpace(r.Fields[name])
}

// Handles per-row cleansing and validation, collecting faulty rows into
// the shared error report
type RowValidator struct {
	Report *ErrorReport
}

func NewRowValidator(report *ErrorReport) *RowValidator {
	return &RowValidator{Report: report}
}

// Validate applies the cleansers, checks required fields and converts the
// typed fields. Errors are diagnostic, not rejecting: the annotated row is
// always returned.
func (v *RowValidator) Validate(row extract.SourceRow) AnnotatedRow {
	annotated := AnnotatedRow{
		LineNum: row.LineNum,
		Fields:  make(map[string]string, len(row.Fields)),
	}
	for k, val := range row.Fields {
		annotated.Fields[k] = val
	}

	//currency cleansing, a fired mapping is a correction and not an error
	rawCurrency := trimmed(annotated.Fields["Currency"])
	currency := cleanse.NormalizeCurrency(rawCurrency)
	if currency != "" && currency != rawCurrency {
		annotated.Corrections = append(annotated.Corrections,
			fmt.Sprintf("line %d: currency '%s' automatically corrected to '%s'", row.LineNum, rawCurrency, currency))
	}
	annotated.Fields["Currency"] = currency

	//country code cleansing
	rawCountry := trimmed(annotated.Fields["Country"])
	country := cleanse.NormalizeCountry(rawCountry)
	if country != "" && country != rawCountry {
		annotated.Corrections = append(annotated.Corrections,
			fmt.Sprintf("line %d: country code '%s' automatically corrected to '%s'", row.LineNum, rawCountry, country))
	}
	annotated.Fields["Country"] = country

	//required fields
	if trimmed(annotated.Fields["OrderNumber"]) == "" {
		annotated.addError("line %d: OrderNumber is missing", row.LineNum)
	}
	if trimmed(annotated.Fields["OrderItem"]) == "" {
		annotated.addError("line %d: OrderItem is missing", row.LineNum)
	}
	if country == "" {
		annotated.addError("line %d: Country is missing", row.LineNum)
	}

	//date, strictly DD.MM.YY
	rawDate := trimmed(annotated.Fields["Date"])
	if parsed, ok := cleanse.ParseDate(rawDate); ok {
		annotated.Date = &parsed
	} else {
		annotated.addError("line %d: invalid date format '%s'", row.LineNum, rawDate)
	}

	//integer fields, Customer and OrderNumber are required
	annotated.Customer = v.parseIntField(&annotated, "Customer", true)
	annotated.OrderNumber = v.parseIntField(&annotated, "OrderNumber", true)
	annotated.SalesQuantity = v.parseIntField(&annotated, "SalesQuantity", false)

	//decimal fields, empty values are silently null
	annotated.Revenue = v.parseDecimalField(&annotated, "Revenue")
	annotated.Discount = v.parseDecimalField(&annotated, "Discount")
	annotated.RevenueUSD = v.parseDecimalField(&annotated, "RevenueUSD")
	annotated.DiscountUSD = v.parseDecimalField(&annotated, "DiscountUSD")
	annotated.CostsUSD = v.parseDecimalField(&annotated, "CostsUSD")

	//post-cleansing length checks
	if currency != "" && len(currency) != 3 {
		annotated.addError("line %d: invalid currency '%s' (should be a 3-letter code)", row.LineNum, currency)
	}
	if country != "" && len(country) != 2 {
		annotated.addError("line %d: invalid country code '%s' (should be a 2-letter code)", row.LineNum, country)
	}

	//faulty rows are collected for the report but still flow downstream
	if v.Report != nil && (len(annotated.Errors) > 0 || len(annotated.Corrections) > 0) {
		v.Report.Add(row.LineNum, annotated.Fields, append(annotated.Corrections, annotated.Errors...))
	}
	return annotated
}

func (a *AnnotatedRow) addError(format string, args ...interface{}) {
	a.Errors = append(a.Errors, fmt.Sprintf(format, args...))
}

func (v *RowValidator) parseIntField(a *AnnotatedRow, field string, required bool) *int64 {
	raw := trimmed(a.Fields[field])
	if raw == "" {
		if required {
			a.addError("line %d: %s is missing or empty", a.LineNum, field)
		}
		return nil
	}
	n, ok := cleanse.ParseInt(raw)
	if !ok {
		a.addError("line %d: %s has invalid value '%s'", a.LineNum, field, raw)
		return nil
	}
	return &n
}

func (v *RowValidator) parseDecimalField(a *AnnotatedRow, field string) *decimal.Decimal {
	raw := trimmed(a.Fields[field])
	if raw == "" {
		return nil
	}
	d, ok := cleanse.ParseDecimal(raw)
	if !ok {
		a.addError("line %d: %s has invalid value '%s'", a.LineNum, field, raw)
		return nil
	}
	return &d
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
