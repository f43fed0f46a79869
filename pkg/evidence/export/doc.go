// Package export writes evidence records as JSON or CSV.
//
//	exp, err := export.New("csv", false)
//	err = exp.Export(ctx, records, os.Stdout)
package export
