package output

import (
	"io"
	"strconv"

	"github.com/agentstation/assetsync/pkg/sync"
)

// Write renders tableData for table formats and serializes raw otherwise.
func Write(w io.Writer, format Format, tableData Data, raw any) error {
	if format.Tabular() {
		return WriteTable(w, tableData)
	}
	return NewFormatter(format).Format(w, raw)
}

// ResultData converts a run summary into the Phase / Metric / Count table.
// Zero counts are left out unless wide is set.
func ResultData(result *sync.Result, wide bool) Data {
	data := Data{
		Headers:         []string{"Phase", "Metric", "Count"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight},
	}
	for _, row := range result.Rows() {
		if row.Count == 0 && !wide {
			continue
		}
		data.Rows = append(data.Rows, []string{Title(row.Phase), Title(row.Metric), strconv.Itoa(row.Count)})
	}
	return data
}

// FailureData lists the devices a run abandoned.
func FailureData(failures []sync.Failure) Data {
	data := Data{Headers: []string{"Serial", "Reason"}}
	for _, f := range failures {
		data.Rows = append(data.Rows, []string{f.Serial, f.Reason})
	}
	return data
}
