package dataset

import "dfpipe/internal/table"

// Product is the built-in product catalogue. Issue_Date holds epoch
// milliseconds as text, and Country uses the literal string "null" as a
// missing-value sentinel that later steps strip out.
func Product() *table.Table {
	t, _ := table.New("product",
		[]table.Column{
			{Name: "Product_Name", Type: table.String, Nullable: true},
			{Name: "Issue_Date", Type: table.String, Nullable: true},
			{Name: "Price", Type: table.Integer, Nullable: true},
			{Name: "Brand", Type: table.String, Nullable: true},
			{Name: "Country", Type: table.String, Nullable: true},
			{Name: "Product_Number", Type: table.String, Nullable: true},
		},
		[][]any{
			{"Washing Machine", "1648770933000", int64(20000), "Samsung", "India", "0001"},
			{"Refrigerator", "1648770999000", int64(35000), " LG", "null", "0002"},
			{"Air Cooler", "1648770948000", int64(45000), " Voltas", "null", "0003"},
		})
	return t
}

// Source is the built-in transaction feed keyed by ProductNumber.
func Source() *table.Table {
	t, _ := table.New("source",
		[]table.Column{
			{Name: "SourceId", Type: table.Integer, Nullable: true},
			{Name: "TransactionNumber", Type: table.Integer, Nullable: true},
			{Name: "Language", Type: table.String, Nullable: true},
			{Name: "ModelNumber", Type: table.String, Nullable: true},
			{Name: "StartTime", Type: table.String, Nullable: true},
			{Name: "ProductNumber", Type: table.String, Nullable: true},
		},
		[][]any{
			{int64(150711), int64(123456), "EN", "456789", "2021-12-27T08:20:29.842+0000", "0001"},
			{int64(150439), int64(234567), "UK", "345678", "2021-01-28T08:21:14.645+0000", "0002"},
			{int64(150647), int64(345678), "ES", "234567", "2021-12-27T08:22:42.445+0000", "0003"},
		})
	return t
}
