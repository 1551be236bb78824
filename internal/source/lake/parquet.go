package lake

import (
	"bytes"
	"io"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"github.com/workfin/practice-api/internal/source"
)

// decodeParquet decodes every row of one parquet object into generic records
// keyed by leaf column name. Timestamp columns come out as their physical
// epoch integers; interpretation is left to the normalizer.
func decodeParquet(data []byte, visit func(source.RawRecord) error) error {
	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return errors.Wrap(err, "open parquet file")
	}

	columns := file.Schema().Columns()
	names := make([]string, len(columns))
	for i, path := range columns {
		names[i] = path[len(path)-1]
	}

	buf := make([]parquet.Row, 128)
	for _, group := range file.RowGroups() {
		rows := group.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				record := make(source.RawRecord, len(names))
				for _, value := range row {
					col := value.Column()
					if col < 0 || col >= len(names) {
						continue
					}
					record[names[col]] = decodeValue(value)
				}
				if visitErr := visit(record); visitErr != nil {
					rows.Close()
					return visitErr
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rows.Close()
				return errors.Wrap(err, "read parquet rows")
			}
		}
		if err := rows.Close(); err != nil {
			return errors.Wrap(err, "close parquet row reader")
		}
	}
	return nil
}

func decodeValue(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return nil
	}
}
