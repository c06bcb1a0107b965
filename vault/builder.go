package vault

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/globalbike/SalesWarehouseETL/cleanse"
	"github.com/globalbike/SalesWarehouseETL/database"
	"github.com/globalbike/SalesWarehouseETL/star"
	"github.com/globalbike/SalesWarehouseETL/validation"
)

// distinct customer attributes observed for the customer satellite
type customerAttrs struct {
	customer int64
	descr    string
	city     string
}

// distinct product attributes observed for the product satellite
type productAttrs struct {
	product  string
	descr    string
	division string
}

// distinct category attributes observed for the category satellite
type categoryAttrs struct {
	category string
	descr    string
}

// observed customer-country pairing
type customerCountry struct {
	customer int64
	country  string
}

// observed product-category pairing
type productCategory struct {
	product  string
	category string
}

// observed salesorg-country pairing
type salesOrgCountry struct {
	salesOrg string
	country  string
}

// observed central fact association, all keys present
type factAssociation struct {
	product  string
	customer int64
	dateID   int
	factKey  string
	category string
	salesOrg string
}

// fact hub business key with its source attributes
type factInfo struct {
	orderNumber *int64
}

// Builds the Data Vault model from the annotated row stream: Hubs as the
// distinct business keys, Links as the distinct observed associations and
// Satellites as the distinct descriptive attributes per Hub. Rows with a
// missing key are excluded from the affected Hubs and Links, matching
// equi-join semantics: unmatched rows drop out.
type Builder struct {
	countrySet  map[string]bool
	customerSet map[int64]bool
	dateSet     map[int]bool
	factSet     map[string]*factInfo
	productSet  map[string]bool
	categorySet map[string]bool
	salesOrgSet map[string]bool

	customerCountries map[customerCountry]bool
	productCategories map[productCategory]bool
	salesOrgCountries map[salesOrgCountry]bool
	factAssociations  map[factAssociation]bool

	customerAttrSet map[customerAttrs]bool
	productAttrSet  map[productAttrs]bool
	categoryAttrSet map[categoryAttrs]bool

	factAttrRows map[string]map[string]interface{} //keyed by attribute signature
}

func NewBuilder() *Builder {
	return &Builder{
		countrySet:  make(map[string]bool),
		customerSet: make(map[int64]bool),
		dateSet:     make(map[int]bool),
		factSet:     make(map[string]*factInfo),
		productSet:  make(map[string]bool),
		categorySet: make(map[string]bool),
		salesOrgSet: make(map[string]bool),

		customerCountries: make(map[customerCountry]bool),
		productCategories: make(map[productCategory]bool),
		salesOrgCountries: make(map[salesOrgCountry]bool),
		factAssociations:  make(map[factAssociation]bool),

		customerAttrSet: make(map[customerAttrs]bool),
		productAttrSet:  make(map[productAttrs]bool),
		categoryAttrSet: make(map[categoryAttrs]bool),

		factAttrRows: make(map[string]map[string]interface{}),
	}
}

// Consume records the row's business keys, pairings and descriptive
// attributes. Nulls never enter a key set.
func (b *Builder) Consume(row validation.AnnotatedRow) {
	country := row.Field("Country")
	product := row.Field("Product")
	category := row.Field("ProdCat")
	salesOrg := row.Field("SalesOrg")
	orderItem := row.Field("OrderItem")

	if country != "" {
		b.countrySet[country] = true
	}
	if row.Customer != nil {
		b.customerSet[*row.Customer] = true
	}
	if row.Date != nil {
		b.dateSet[star.DateID(*row.Date)] = true
	}
	if product != "" {
		b.productSet[product] = true
	}
	if category != "" {
		b.categorySet[category] = true
	}
	if salesOrg != "" {
		b.salesOrgSet[salesOrg] = true
	}

	var factKey string
	if orderItem != "" {
		factKey = star.FactKey(row)
		if _, exists := b.factSet[factKey]; !exists {
			b.factSet[factKey] = &factInfo{orderNumber: row.OrderNumber}
		}
	}

	//link pairings, only complete combinations are observed
	if row.Customer != nil && country != "" {
		b.customerCountries[customerCountry{customer: *row.Customer, country: country}] = true
	}
	if product != "" && category != "" {
		b.productCategories[productCategory{product: product, category: category}] = true
	}
	if salesOrg != "" && country != "" {
		b.salesOrgCountries[salesOrgCountry{salesOrg: salesOrg, country: country}] = true
	}
	if product != "" && row.Customer != nil && row.Date != nil && factKey != "" && category != "" && salesOrg != "" {
		b.factAssociations[factAssociation{
			product:  product,
			customer: *row.Customer,
			dateID:   star.DateID(*row.Date),
			factKey:  factKey,
			category: category,
			salesOrg: salesOrg,
		}] = true
	}

	//satellite attributes
	if row.Customer != nil {
		b.customerAttrSet[customerAttrs{
			customer: *row.Customer,
			descr:    row.Field("CustDescr"),
			city:     row.Field("City"),
		}] = true
	}
	if product != "" {
		b.productAttrSet[productAttrs{
			product:  product,
			descr:    row.Field("ProdDescr"),
			division: row.Field("Division"),
		}] = true
	}
	if category != "" {
		b.categoryAttrSet[categoryAttrs{
			category: category,
			descr:    row.Field("CatDescr"),
		}] = true
	}
	if factKey != "" {
		currency := cleanse.NormalizeCurrency(row.Field("Currency"))
		attrs := map[string]interface{}{
			"factkey":       factKey,
			"salesquantity": nullableInt(row.SalesQuantity),
			"unitofmeasure": nullableString(row.Field("UnitOfMeasure")),
			"revenueusd":    nullableDecimal(row.RevenueUSD),
			"discountusd":   nullableDecimal(row.DiscountUSD),
			"costsusd":      nullableDecimal(row.CostsUSD),
			"revenue":       nullableDecimal(row.Revenue),
			"discount":      nullableDecimal(row.Discount),
			"currency":      nullableString(currency),
		}
		signature := fmt.Sprintf("%s|%v|%s|%v|%v|%v|%v|%v|%s",
			factKey, attrs["salesquantity"], row.Field("UnitOfMeasure"),
			attrs["revenueusd"], attrs["discountusd"], attrs["costsusd"],
			attrs["revenue"], attrs["discount"], currency)
		if _, exists := b.factAttrRows[signature]; !exists {
			b.factAttrRows[signature] = attrs
		}
	}
}

// surrogate key spaces, minted once per hub from the distinct business keys
type keySpaces struct {
	country  map[string]int
	customer map[int64]int
	date     map[int]int
	fact     map[string]int
	product  map[string]int
	category map[string]int
	salesOrg map[string]int
}

func (b *Builder) factorizeAll() keySpaces {
	return keySpaces{
		country:  Factorize(sortedKeys(b.countrySet), 1),
		customer: Factorize(sortedKeys(b.customerSet), 1),
		date:     Factorize(sortedKeys(b.dateSet), 1),
		fact:     Factorize(factKeys(b.factSet), 1),
		product:  Factorize(sortedKeys(b.productSet), 1),
		category: Factorize(sortedKeys(b.categorySet), 1),
		salesOrg: Factorize(sortedKeys(b.salesOrgSet), 1),
	}
}

// HubTables materialises one row per distinct business key, with the
// factorized surrogate ID. Hubs carry no dependencies among each other.
func (b *Builder) HubTables() []database.Table {
	ids := b.factorizeAll()

	hubCountry := database.Table{
		Name:       "hubcountry",
		Columns:    []string{"hubcountryid", "countrycode"},
		KeyColumns: []string{"countrycode"},
	}
	for _, code := range sortedKeys(b.countrySet) {
		hubCountry.Rows = append(hubCountry.Rows, map[string]interface{}{
			"hubcountryid": ids.country[code],
			"countrycode":  code,
		})
	}

	hubCustomer := database.Table{
		Name:       "hubcustomer",
		Columns:    []string{"hubcustomerid", "customerid"},
		KeyColumns: []string{"customerid"},
	}
	for _, customer := range sortedKeys(b.customerSet) {
		hubCustomer.Rows = append(hubCustomer.Rows, map[string]interface{}{
			"hubcustomerid": ids.customer[customer],
			"customerid":    customer,
		})
	}

	hubDate := database.Table{
		Name:       "hubdate",
		Columns:    []string{"hubdateid", "date"},
		KeyColumns: []string{"date"},
	}
	for _, dateID := range sortedKeys(b.dateSet) {
		hubDate.Rows = append(hubDate.Rows, map[string]interface{}{
			"hubdateid": ids.date[dateID],
			"date":      dateID,
		})
	}

	hubFactSales := database.Table{
		Name:       "hubfactsales",
		Columns:    []string{"hubfactsalesid", "orderitem", "ordernumber"},
		KeyColumns: []string{"orderitem"},
	}
	for _, factKey := range factKeys(b.factSet) {
		hubFactSales.Rows = append(hubFactSales.Rows, map[string]interface{}{
			"hubfactsalesid": ids.fact[factKey],
			"orderitem":      factKey,
			"ordernumber":    nullableInt(b.factSet[factKey].orderNumber),
		})
	}

	hubProduct := database.Table{
		Name:       "hubproduct",
		Columns:    []string{"hubproductid", "productid"},
		KeyColumns: []string{"productid"},
	}
	for _, product := range sortedKeys(b.productSet) {
		hubProduct.Rows = append(hubProduct.Rows, map[string]interface{}{
			"hubproductid": ids.product[product],
			"productid":    product,
		})
	}

	hubCategory := database.Table{
		Name:       "hubproductcategory",
		Columns:    []string{"hubproductcategoryid", "prodcatid"},
		KeyColumns: []string{"prodcatid"},
	}
	for _, category := range sortedKeys(b.categorySet) {
		hubCategory.Rows = append(hubCategory.Rows, map[string]interface{}{
			"hubproductcategoryid": ids.category[category],
			"prodcatid":            category,
		})
	}

	hubSalesOrg := database.Table{
		Name:       "hubsalesorg",
		Columns:    []string{"hubsalesorgid", "salesorg"},
		KeyColumns: []string{"salesorg"},
	}
	for _, salesOrg := range sortedKeys(b.salesOrgSet) {
		hubSalesOrg.Rows = append(hubSalesOrg.Rows, map[string]interface{}{
			"hubsalesorgid": ids.salesOrg[salesOrg],
			"salesorg":      salesOrg,
		})
	}

	return []database.Table{hubCountry, hubCustomer, hubDate, hubFactSales, hubProduct, hubCategory, hubSalesOrg}
}

// LinkTables materialises one row per distinct observed association,
// resolved to the Hubs' surrogate IDs.
func (b *Builder) LinkTables() []database.Table {
	ids := b.factorizeAll()

	linkCustomerCountry := database.Table{
		Name:       "linkcustomercountry",
		Columns:    []string{"hubcountryid", "hubcustomerid"},
		KeyColumns: []string{"hubcountryid", "hubcustomerid"},
	}
	customerCountryPairs := make([]customerCountry, 0, len(b.customerCountries))
	for pair := range b.customerCountries {
		customerCountryPairs = append(customerCountryPairs, pair)
	}
	sort.Slice(customerCountryPairs, func(i, j int) bool {
		if customerCountryPairs[i].country != customerCountryPairs[j].country {
			return customerCountryPairs[i].country < customerCountryPairs[j].country
		}
		return customerCountryPairs[i].customer < customerCountryPairs[j].customer
	})
	for _, pair := range customerCountryPairs {
		linkCustomerCountry.Rows = append(linkCustomerCountry.Rows, map[string]interface{}{
			"hubcountryid":  ids.country[pair.country],
			"hubcustomerid": ids.customer[pair.customer],
		})
	}

	linkProductCategory := database.Table{
		Name:       "linkproductproductcategory",
		Columns:    []string{"hubproductid", "hubproductcategoryid"},
		KeyColumns: []string{"hubproductid", "hubproductcategoryid"},
	}
	productCategoryPairs := make([]productCategory, 0, len(b.productCategories))
	for pair := range b.productCategories {
		productCategoryPairs = append(productCategoryPairs, pair)
	}
	sort.Slice(productCategoryPairs, func(i, j int) bool {
		if productCategoryPairs[i].product != productCategoryPairs[j].product {
			return productCategoryPairs[i].product < productCategoryPairs[j].product
		}
		return productCategoryPairs[i].category < productCategoryPairs[j].category
	})
	for _, pair := range productCategoryPairs {
		linkProductCategory.Rows = append(linkProductCategory.Rows, map[string]interface{}{
			"hubproductid":         ids.product[pair.product],
			"hubproductcategoryid": ids.category[pair.category],
		})
	}

	linkSalesOrgCountry := database.Table{
		Name:       "linksalesorgcountry",
		Columns:    []string{"hubcountryid", "hubsalesorgid"},
		KeyColumns: []string{"hubcountryid", "hubsalesorgid"},
	}
	salesOrgCountryPairs := make([]salesOrgCountry, 0, len(b.salesOrgCountries))
	for pair := range b.salesOrgCountries {
		salesOrgCountryPairs = append(salesOrgCountryPairs, pair)
	}
	sort.Slice(salesOrgCountryPairs, func(i, j int) bool {
		if salesOrgCountryPairs[i].country != salesOrgCountryPairs[j].country {
			return salesOrgCountryPairs[i].country < salesOrgCountryPairs[j].country
		}
		return salesOrgCountryPairs[i].salesOrg < salesOrgCountryPairs[j].salesOrg
	})
	for _, pair := range salesOrgCountryPairs {
		linkSalesOrgCountry.Rows = append(linkSalesOrgCountry.Rows, map[string]interface{}{
			"hubcountryid":  ids.country[pair.country],
			"hubsalesorgid": ids.salesOrg[pair.salesOrg],
		})
	}

	linkFactSales := database.Table{
		Name:       "linkfactsales",
		Columns:    []string{"hubproductid", "hubcustomerid", "hubdateid", "hubfactsalesid", "hubproductcategoryid", "hubsalesorgid"},
		KeyColumns: []string{"hubfactsalesid"},
	}
	associations := make([]factAssociation, 0, len(b.factAssociations))
	for assoc := range b.factAssociations {
		associations = append(associations, assoc)
	}
	sort.Slice(associations, func(i, j int) bool { return associations[i].factKey < associations[j].factKey })
	for _, assoc := range associations {
		linkFactSales.Rows = append(linkFactSales.Rows, map[string]interface{}{
			"hubproductid":         ids.product[assoc.product],
			"hubcustomerid":        ids.customer[assoc.customer],
			"hubdateid":            ids.date[assoc.dateID],
			"hubfactsalesid":       ids.fact[assoc.factKey],
			"hubproductcategoryid": ids.category[assoc.category],
			"hubsalesorgid":        ids.salesOrg[assoc.salesOrg],
		})
	}

	return []database.Table{linkCustomerCountry, linkProductCategory, linkSalesOrgCountry, linkFactSales}
}

// SatelliteTables materialises the distinct descriptive attributes per Hub,
// stamped with the run's load date. Satellites are append-only: re-running
// on a later load date adds rows, it never overwrites history.
func (b *Builder) SatelliteTables(loadDate time.Time) []database.Table {
	ids := b.factorizeAll()
	load := loadDate.Format("2006-01-02")

	satCountry := database.Table{
		Name:       "satcountry",
		Columns:    []string{"loaddate", "hubcountryid", "countryname"},
		KeyColumns: []string{"loaddate", "hubcountryid", "countryname"},
	}
	for _, code := range sortedKeys(b.countrySet) {
		satCountry.Rows = append(satCountry.Rows, map[string]interface{}{
			"loaddate":     load,
			"hubcountryid": ids.country[code],
			"countryname":  cleanse.CountryName(code),
		})
	}

	satCustomer := database.Table{
		Name:       "satcustomer",
		Columns:    []string{"loaddate", "hubcustomerid", "custdescr", "city"},
		KeyColumns: []string{"loaddate", "hubcustomerid", "custdescr", "city"},
	}
	customerRows := make([]customerAttrs, 0, len(b.customerAttrSet))
	for attrs := range b.customerAttrSet {
		customerRows = append(customerRows, attrs)
	}
	sort.Slice(customerRows, func(i, j int) bool {
		if customerRows[i].customer != customerRows[j].customer {
			return customerRows[i].customer < customerRows[j].customer
		}
		if customerRows[i].descr != customerRows[j].descr {
			return customerRows[i].descr < customerRows[j].descr
		}
		return customerRows[i].city < customerRows[j].city
	})
	for _, attrs := range customerRows {
		satCustomer.Rows = append(satCustomer.Rows, map[string]interface{}{
			"loaddate":      load,
			"hubcustomerid": ids.customer[attrs.customer],
			"custdescr":     nullableString(attrs.descr),
			"city":          nullableString(attrs.city),
		})
	}

	satDate := database.Table{
		Name:       "satdate",
		Columns:    []string{"loaddate", "hubdateid", "year", "month", "day"},
		KeyColumns: []string{"loaddate", "hubdateid"},
	}
	for _, dateID := range sortedKeys(b.dateSet) {
		satDate.Rows = append(satDate.Rows, map[string]interface{}{
			"loaddate":  load,
			"hubdateid": ids.date[dateID],
			"year":      dateID / 10000,
			"month":     dateID / 100 % 100,
			"day":       dateID % 100,
		})
	}

	satFactSales := database.Table{
		Name:       "satfactsales",
		Columns:    []string{"loaddate", "hubfactsalesid", "salesquantity", "unitofmeasure", "revenueusd", "discountusd", "costsusd", "revenue", "discount", "currency"},
		KeyColumns: []string{"loaddate", "hubfactsalesid", "salesquantity", "unitofmeasure", "revenueusd", "discountusd", "costsusd", "revenue", "discount", "currency"},
	}
	signatures := make([]string, 0, len(b.factAttrRows))
	for signature := range b.factAttrRows {
		signatures = append(signatures, signature)
	}
	sort.Strings(signatures)
	for _, signature := range signatures {
		attrs := b.factAttrRows[signature]
		row := map[string]interface{}{
			"loaddate":       load,
			"hubfactsalesid": ids.fact[attrs["factkey"].(string)],
		}
		for _, col := range []string{"salesquantity", "unitofmeasure", "revenueusd", "discountusd", "costsusd", "revenue", "discount", "currency"} {
			row[col] = attrs[col]
		}
		satFactSales.Rows = append(satFactSales.Rows, row)
	}

	satProduct := database.Table{
		Name:       "satproduct",
		Columns:    []string{"loaddate", "hubproductid", "proddescr", "divisioncode"},
		KeyColumns: []string{"loaddate", "hubproductid", "proddescr", "divisioncode"},
	}
	productRows := make([]productAttrs, 0, len(b.productAttrSet))
	for attrs := range b.productAttrSet {
		productRows = append(productRows, attrs)
	}
	sort.Slice(productRows, func(i, j int) bool {
		if productRows[i].product != productRows[j].product {
			return productRows[i].product < productRows[j].product
		}
		if productRows[i].descr != productRows[j].descr {
			return productRows[i].descr < productRows[j].descr
		}
		return productRows[i].division < productRows[j].division
	})
	for _, attrs := range productRows {
		satProduct.Rows = append(satProduct.Rows, map[string]interface{}{
			"loaddate":     load,
			"hubproductid": ids.product[attrs.product],
			"proddescr":    nullableString(attrs.descr),
			"divisioncode": nullableString(attrs.division),
		})
	}

	satCategory := database.Table{
		Name:       "satproductcategory",
		Columns:    []string{"loaddate", "hubproductcategoryid", "catdescr"},
		KeyColumns: []string{"loaddate", "hubproductcategoryid", "catdescr"},
	}
	categoryRows := make([]categoryAttrs, 0, len(b.categoryAttrSet))
	for attrs := range b.categoryAttrSet {
		categoryRows = append(categoryRows, attrs)
	}
	sort.Slice(categoryRows, func(i, j int) bool {
		if categoryRows[i].category != categoryRows[j].category {
			return categoryRows[i].category < categoryRows[j].category
		}
		return categoryRows[i].descr < categoryRows[j].descr
	})
	for _, attrs := range categoryRows {
		satCategory.Rows = append(satCategory.Rows, map[string]interface{}{
			"loaddate":             load,
			"hubproductcategoryid": ids.category[attrs.category],
			"catdescr":             nullableString(attrs.descr),
		})
	}

	satSalesOrg := database.Table{
		Name:       "satsalesorg",
		Columns:    []string{"loaddate", "hubsalesorgid", "salesorgcode"},
		KeyColumns: []string{"loaddate", "hubsalesorgid", "salesorgcode"},
	}
	for _, salesOrg := range sortedKeys(b.salesOrgSet) {
		satSalesOrg.Rows = append(satSalesOrg.Rows, map[string]interface{}{
			"loaddate":      load,
			"hubsalesorgid": ids.salesOrg[salesOrg],
			"salesorgcode":  salesOrg,
		})
	}

	return []database.Table{satCountry, satCustomer, satDate, satFactSales, satProduct, satCategory, satSalesOrg}
}

// sorted fact hub keys
func factKeys(set map[string]*factInfo) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
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
