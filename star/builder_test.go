package star

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/globalbike/SalesWarehouseETL/database"
	"github.com/globalbike/SalesWarehouseETL/extract"
	"github.com/globalbike/SalesWarehouseETL/validation"
)

func annotate(t *testing.T, lineNum int, fields map[string]string) validation.AnnotatedRow {
	t.Helper()
	validator := validation.NewRowValidator(nil)
	return validator.Validate(extract.SourceRow{LineNum: lineNum, Fields: fields})
}

func salesRow(t *testing.T, lineNum int, overrides map[string]string) validation.AnnotatedRow {
	t.Helper()
	fields := map[string]string{
		"OrderNumber":   "1001",
		"OrderItem":     "1",
		"Customer":      "5001",
		"CustDescr":     "Rocky Mountain Bikes",
		"City":          "Denver",
		"Country":       "US",
		"SalesOrg":      "UW00",
		"Currency":      "USD",
		"Date":          "15.03.24",
		"ProdCat":       "BIKES",
		"CatDescr":      "Bicycles",
		"Product":       "PRTR1000",
		"ProdDescr":     "Professional Touring Bike",
		"Division":      "BI",
		"SalesQuantity": "2",
		"UnitOfMeasure": "EA",
		"Revenue":       "6000,00",
		"Discount":      "0,00",
		"RevenueUSD":    "6000,00",
		"DiscountUSD":   "0,00",
		"CostsUSD":      "4400,00",
	}
	for k, v := range overrides {
		fields[k] = v
	}
	return annotate(t, lineNum, fields)
}

func tableByName(t *testing.T, tables []database.Table, name string) database.Table {
	t.Helper()
	for _, table := range tables {
		if table.Name == name {
			return table
		}
	}
	t.Fatalf("Table %s not found", name)
	return database.Table{}
}

func TestCountryDeduplicationAfterCleansing(t *testing.T) {
	builder := NewBuilder()

	//GER and DE normalise to the same code, one dimension row results
	builder.Consume(salesRow(t, 2, map[string]string{"Country": "GER"}))
	builder.Consume(salesRow(t, 3, map[string]string{"Country": "DE", "OrderNumber": "1002"}))

	country := tableByName(t, builder.DimensionTables(), "country")
	require.Len(t, country.Rows, 1)
	require.Equal(t, "DE", country.Rows[0]["countrycode"])
}

func TestDimensionFirstOccurrenceWins(t *testing.T) {
	builder := NewBuilder()
	builder.Consume(salesRow(t, 2, map[string]string{"CustDescr": "First Name"}))
	builder.Consume(salesRow(t, 3, map[string]string{"CustDescr": "Second Name", "OrderItem": "2"}))

	customer := tableByName(t, builder.DimensionTables(), "customer")
	require.Len(t, customer.Rows, 1)
	require.Equal(t, "First Name", customer.Rows[0]["custdescr"])
}

func TestFactCompositeKey(t *testing.T) {
	builder := NewBuilder()
	builder.Consume(salesRow(t, 2, nil))

	facts := builder.FactTable()
	require.Len(t, facts.Rows, 1)
	require.Equal(t, "1001-1", facts.Rows[0]["orderitem"])
	require.Equal(t, int64(1001), facts.Rows[0]["ordernumber"])
}

func TestFactDuplicatesCollapse(t *testing.T) {
	builder := NewBuilder()
	builder.Consume(salesRow(t, 2, nil))
	builder.Consume(salesRow(t, 3, nil)) //same order number and item

	require.Len(t, builder.FactTable().Rows, 1)
}

func TestFactNullForeignKeys(t *testing.T) {
	builder := NewBuilder()

	//missing date and product leave the fact row with null references
	builder.Consume(salesRow(t, 2, map[string]string{"Date": "31.02.24", "Product": "", "ProdDescr": ""}))

	facts := builder.FactTable()
	require.Len(t, facts.Rows, 1)
	require.Nil(t, facts.Rows[0]["dateid"])
	require.Nil(t, facts.Rows[0]["productid"])

	//and no date dimension row is emitted for the unparseable date
	date := tableByName(t, builder.DimensionTables(), "date")
	require.Empty(t, date.Rows)
}

func TestDateDimension(t *testing.T) {
	builder := NewBuilder()
	builder.Consume(salesRow(t, 2, nil))

	date := tableByName(t, builder.DimensionTables(), "date")
	require.Len(t, date.Rows, 1)
	require.Equal(t, 20240315, date.Rows[0]["dateid"])
	require.Equal(t, 2024, date.Rows[0]["year"])
	require.Equal(t, 3, date.Rows[0]["month"])
	require.Equal(t, 15, date.Rows[0]["day"])
}

func TestDimensionDependencyOrder(t *testing.T) {
	builder := NewBuilder()
	builder.Consume(salesRow(t, 2, nil))

	tables := builder.DimensionTables()
	names := make([]string, 0, len(tables))
	for _, table := range tables {
		names = append(names, table.Name)
	}

	//referenced dimensions precede their referencing dimensions
	require.Equal(t, []string{"country", "salesorg", "customer", "date", "order", "productcategory", "product"}, names)
}

func TestDimensionRowsSortedByKey(t *testing.T) {
	builder := NewBuilder()
	builder.Consume(salesRow(t, 2, map[string]string{"Customer": "7000", "OrderItem": "1"}))
	builder.Consume(salesRow(t, 3, map[string]string{"Customer": "5001", "OrderItem": "2"}))
	builder.Consume(salesRow(t, 4, map[string]string{"Customer": "6000", "OrderItem": "3"}))

	customer := tableByName(t, builder.DimensionTables(), "customer")
	require.Len(t, customer.Rows, 3)
	require.Equal(t, int64(5001), customer.Rows[0]["customerid"])
	require.Equal(t, int64(6000), customer.Rows[1]["customerid"])
	require.Equal(t, int64(7000), customer.Rows[2]["customerid"])
}

func TestDateID(t *testing.T) {
	d := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 20240315, DateID(d))
}

func TestFactKeyFallsBackToRawField(t *testing.T) {
	row := annotate(t, 2, map[string]string{
		"OrderNumber": "10x1", //unparseable, the raw field is used as-is
		"OrderItem":   "2",
	})
	require.Equal(t, "10x1-2", FactKey(row))
}
