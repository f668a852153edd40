package config

// Default returns the built-in pipeline: the Product and Source literal
// tables, their column derivations, the full outer join on product number and
// the EN filter. Every table is printed untruncated.
func Default() Pipeline {
	return Pipeline{
		Job: "product_source",
		Tables: []TableSource{
			{Name: "product", Kind: "literal", Dataset: "product"},
			{Name: "source", Kind: "literal", Dataset: "source"},
		},
		Steps: []Step{
			{
				Kind:        "show",
				Label:       "Creating Product details dataframe",
				Table:       "product",
				Show:        true,
				PrintSchema: true,
			},
			{
				Kind:  "from_unixtime",
				Label: "Converting the Unix Epoch Datetime with the timestamp format",
				Table: "product",
				Into:  "product_derived",
				Show:  true,
				Options: Options{
					"input":   "Issue_Date",
					"output":  "Issue_Date_timestamp",
					"digits":  10,
					"pattern": "yyyy-MM-dd'T'HH:mm:ss[.SSS][ZZZ]",
				},
			},
			{
				Kind:    "to_date",
				Label:   "Converting timestamp to date type",
				Table:   "product_derived",
				Show:    true,
				Options: Options{"input": "Issue_Date_timestamp", "output": "Issue_date_todate"},
			},
			{
				Kind:    "ltrim",
				Label:   "Removing the starting extra space in Brand column",
				Table:   "product_derived",
				Show:    true,
				Options: Options{"input": "Brand", "output": "Brand_without_space"},
			},
			{
				Kind:  "regexp_replace",
				Label: "Replacing null values with empty values in Country column",
				Table: "product_derived",
				Show:  true,
				Options: Options{
					"input":       "Country",
					"output":      "Country_NoNull",
					"pattern":     "null",
					"replacement": "",
				},
			},
			{
				Kind:        "show",
				Label:       "creating Source dataframe",
				Table:       "source",
				Show:        true,
				PrintSchema: true,
			},
			{
				Kind:  "rename_snake",
				Label: "Changing the camel case columns to snake case",
				Table: "source",
				Into:  "source_snake",
				Show:  true,
				Options: Options{
					"columns": []string{"SourceId", "TransactionNumber", "Language", "ModelNumber", "StartTime", "ProductNumber"},
				},
			},
			{
				// Printed without a label line.
				Kind:    "start_time_ms",
				Table:   "source_snake",
				Show:    true,
				Options: Options{"input": "start_time", "output": "start_time_ms"},
			},
			{
				Kind:        "join",
				Label:       "Combine both the dataframes based on the Product Number",
				Table:       "product",
				Into:        "joined",
				Show:        true,
				PrintSchema: true,
				Options: Options{
					"right":    "source",
					"left_on":  "Product_Number",
					"right_on": "ProductNumber",
					"how":      "full_outer",
				},
			},
			{
				Kind:    "filter",
				Label:   "Getting the country as EN",
				Table:   "joined",
				Into:    "joined_en",
				Show:    true,
				Options: Options{"column": "Language", "op": "==", "value": "EN"},
			},
			{
				Kind:  "filter",
				Table: "joined",
				Into:  "joined_en_country",
				Show:  true,
				Options: Options{
					"column": "Language",
					"op":     "==",
					"value":  "EN",
					"select": []string{"Country"},
				},
			},
		},
	}
}
