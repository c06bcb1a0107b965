package star

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/globalbike/SalesWarehouseETL/database"
	"github.com/globalbike/SalesWarehouseETL/validation"
)

// Builds the dimensional model incrementally from the annotated row stream.
// Each dimension is a map keyed by natural key so duplicates are absorbed,
// first occurrence wins for any attribute conflict. Facts are append-only,
// keyed by the composite order number + order item key.
type Builder struct {
	countries  map[string]map[string]interface{}
	customers  map[int64]map[string]interface{}
	dates      map[int]map[string]interface{}
	salesOrgs  map[string]map[string]interface{}
	orders     map[int64]map[string]interface{}
	categories map[string]map[string]interface{}
	products   map[string]map[string]interface{}
	facts      []map[string]interface{}
	factSeen   map[string]bool
}

func NewBuilder() *Builder {
	return &Builder{
		countries:  make(map[string]map[string]interface{}),
		customers:  make(map[int64]map[string]interface{}),
		dates:      make(map[int]map[string]interface{}),
		salesOrgs:  make(map[string]map[string]interface{}),
		orders:     make(map[int64]map[string]interface{}),
		categories: make(map[string]map[string]interface{}),
		products:   make(map[string]map[string]interface{}),
		factSeen:   make(map[string]bool),
	}
}

// Consume upserts the row into every dimension and appends one fact when an
// order item is present. Missing upstream keys propagate as nulls instead
// of failing the row.
func (b *Builder) Consume(row validation.AnnotatedRow) {

	//Country, the name is not present in the source data
	country := row.Field("Country")
	if country != "" {
		if _, exists := b.countries[country]; !exists {
			b.countries[country] = map[string]interface{}{
				"countrycode": country,
				"countryname": nil,
			}
		}
	}

	//Customer
	if row.Customer != nil {
		if _, exists := b.customers[*row.Customer]; !exists {
			b.customers[*row.Customer] = map[string]interface{}{
				"customerid":  *row.Customer,
				"countrycode": nullableString(country),
				"custdescr":   nullableString(row.Field("CustDescr")),
				"city":        nullableString(row.Field("City")),
			}
		}
	}

	//Date, surrogate key is the YYYYMMDD integer
	if row.Date != nil {
		dateID := DateID(*row.Date)
		if _, exists := b.dates[dateID]; !exists {
			b.dates[dateID] = map[string]interface{}{
				"dateid": dateID,
				"date":   *row.Date,
				"year":   row.Date.Year(),
				"month":  int(row.Date.Month()),
				"day":    row.Date.Day(),
			}
		}
	}

	//SalesOrg, the code doubles as the ID
	salesOrg := row.Field("SalesOrg")
	if salesOrg != "" {
		if _, exists := b.salesOrgs[salesOrg]; !exists {
			b.salesOrgs[salesOrg] = map[string]interface{}{
				"salesorgid":   salesOrg,
				"salesorgcode": salesOrg,
			}
		}
	}

	//Order
	if row.OrderNumber != nil {
		if _, exists := b.orders[*row.OrderNumber]; !exists {
			b.orders[*row.OrderNumber] = map[string]interface{}{
				"ordernumber": *row.OrderNumber,
				"salesorgid":  nullableString(salesOrg),
				"currency":    nullableString(row.Field("Currency")),
				"revenue":     nullableDecimal(row.Revenue),
				"discount":    nullableDecimal(row.Discount),
			}
		}
	}

	//ProductCategory
	prodCat := row.Field("ProdCat")
	if prodCat != "" {
		if _, exists := b.categories[prodCat]; !exists {
			b.categories[prodCat] = map[string]interface{}{
				"prodcatid": prodCat,
				"catdescr":  nullableString(row.Field("CatDescr")),
			}
		}
	}

	//Product
	product := row.Field("Product")
	if product != "" {
		if _, exists := b.products[product]; !exists {
			b.products[product] = map[string]interface{}{
				"productid":    product,
				"prodcatid":    nullableString(prodCat),
				"proddescr":    nullableString(row.Field("ProdDescr")),
				"divisioncode": nullableString(row.Field("Division")),
			}
		}
	}

	//FactSales, duplicates of the composite key collapse to the first row
	orderItem := row.Field("OrderItem")
	if orderItem != "" {
		factKey := FactKey(row)
		if !b.factSeen[factKey] {
			b.factSeen[factKey] = true

			var dateID interface{}
			if row.Date != nil {
				dateID = DateID(*row.Date)
			}

			b.facts = append(b.facts, map[string]interface{}{
				"orderitem":     factKey,
				"productid":     nullableString(product),
				"customerid":    nullableInt(row.Customer),
				"ordernumber":   nullableInt(row.OrderNumber),
				"dateid":        dateID,
				"salesquantity": nullableInt(row.SalesQuantity),
				"unitofmeasure": nullableString(row.Field("UnitOfMeasure")),
				"revenueusd":    nullableDecimal(row.RevenueUSD),
				"discountusd":   nullableDecimal(row.DiscountUSD),
				"costsusd":      nullableDecimal(row.CostsUSD),
			})
		}
	}
}

// DimensionTables returns the seven dimensions in dependency order with
// rows sorted by natural key, so re-runs emit identical sequences.
func (b *Builder) DimensionTables() []database.Table {
	return []database.Table{
		{
			Name:       "country",
			Columns:    []string{"countrycode", "countryname"},
			KeyColumns: []string{"countrycode"},
			Rows:       sortedRows(b.countries),
		},
		{
			Name:       "salesorg",
			Columns:    []string{"salesorgid", "salesorgcode"},
			KeyColumns: []string{"salesorgid"},
			Rows:       sortedRows(b.salesOrgs),
		},
		{
			Name:       "customer",
			Columns:    []string{"customerid", "countrycode", "custdescr", "city"},
			KeyColumns: []string{"customerid"},
			Rows:       sortedRows(b.customers),
		},
		{
			Name:       "date",
			Columns:    []string{"dateid", "date", "year", "month", "day"},
			KeyColumns: []string{"dateid"},
			Rows:       sortedRows(b.dates),
		},
		{
			Name:       "order",
			Columns:    []string{"ordernumber", "salesorgid", "currency", "revenue", "discount"},
			KeyColumns: []string{"ordernumber"},
			Rows:       sortedRows(b.orders),
		},
		{
			Name:       "productcategory",
			Columns:    []string{"prodcatid", "catdescr"},
			KeyColumns: []string{"prodcatid"},
			Rows:       sortedRows(b.categories),
		},
		{
			Name:       "product",
			Columns:    []string{"productid", "prodcatid", "proddescr", "divisioncode"},
			KeyColumns: []string{"productid"},
			Rows:       sortedRows(b.products),
		},
	}
}

// FactTable returns the fact table in source order. It is loaded last, with
// the best-effort write policy.
func (b *Builder) FactTable() database.Table {
	return database.Table{
		Name:       "factsales",
		Columns:    []string{"orderitem", "productid", "customerid", "ordernumber", "dateid", "salesquantity", "unitofmeasure", "revenueusd", "discountusd", "costsusd"},
		KeyColumns: []string{"orderitem"},
		Rows:       b.facts,
	}
}

// DateID formats a date as its YYYYMMDD surrogate key.
func DateID(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// FactKey builds the composite "orderNumber-orderItem" key. The parsed
// order number is preferred so formatting is canonical, the raw field is
// the fallback when parsing failed.
func FactKey(row validation.AnnotatedRow) string {
	orderNumber := row.Field("OrderNumber")
	if row.OrderNumber != nil {
		orderNumber = fmt.Sprintf("%d", *row.OrderNumber)
	}
	return fmt.Sprintf("%s-%s", orderNumber, row.Field("OrderItem"))
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(p *int64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullableDecimal(p *decimal.Decimal) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// rows of a dimension map ordered by natural key
func sortedRows[K int | int64 | string](m map[K]map[string]interface{}) []map[string]interface{} {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([]map[string]interface{}, 0, len(m))
	for _, k := range keys {
		rows = append(rows, m[k])
	}
	return rows
}
