package gtfsstatic

import (
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/transitfusion/fusion_core/internal/models"
)

// transferCSV mirrors transfers.txt via struct tags; gocsv handles the
// header-to-field mapping instead of the hand-rolled column map used for
// the larger required files. transfer_type and min_transfer_time are
// read as strings since real-world transfers.txt commonly leaves
// min_transfer_time blank, which gocsv can't unmarshal into a bare int.
type transferCSV struct {
	FromStopID      string `csv:"from_stop_id"`
	ToStopID        string `csv:"to_stop_id"`
	TransferType    string `csv:"transfer_type"`
	MinTransferTime string `csv:"min_transfer_time"`
}

func parseTransfers(path string) ([]models.Transfer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows []transferCSV
	if err := gocsv.Unmarshal(file, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Transfer, 0, len(rows))
	for _, row := range rows {
		if row.FromStopID == "" || row.ToStopID == "" {
			continue
		}
		out = append(out, models.Transfer{
			FromStopID:      row.FromStopID,
			ToStopID:        row.ToStopID,
			TransferType:    models.TransferType(atoiOrZero(row.TransferType)),
			MinTransferTime: atoiOrZero(row.MinTransferTime),
		})
	}
	return out, nil
}

// atoiOrZero parses s as an int, treating a blank or malformed cell as 0
// rather than failing the whole file over one optional field.
func atoiOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
