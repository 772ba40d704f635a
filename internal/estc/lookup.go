package estc

import (
	"encoding/csv"
	"fmt"
	"os"
)

// VIDLookup is the static cross-reference table from ESTC citation numbers
// to EEBO VIDs, loaded from a CSV export with estcNO and VID columns.
type VIDLookup struct {
	vids map[string]string
}

// LoadVIDLookup reads the cross-reference CSV at path.
func LoadVIDLookup(path string) (*VIDLookup, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open VID lookup table: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse VID lookup table %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("VID lookup table %s is empty", path)
	}

	estcCol, vidCol := -1, -1
	for i, name := range rows[0] {
		switch name {
		case "estcNO":
			estcCol = i
		case "VID":
			vidCol = i
		}
	}
	if estcCol < 0 || vidCol < 0 {
		return nil, fmt.Errorf("VID lookup table %s is missing estcNO/VID columns", path)
	}

	vids := make(map[string]string, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) <= estcCol || len(row) <= vidCol {
			continue
		}
		if estc := row[estcCol]; estc != "" {
			vids[estc] = row[vidCol]
		}
	}
	return &VIDLookup{vids: vids}, nil
}

// VIDFor returns the VID recorded for an ESTC number, or "" when the
// number is not in the table.
func (l *VIDLookup) VIDFor(estc string) string {
	return l.vids[estc]
}
