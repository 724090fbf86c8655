package trainer

import (
	"fmt"
	"os"
	"strings"

	"github.com/TFMV/OrganMatchPro/pkg/utils"
)

// Columns are the dataset fields joined, in this order, into one training
// document per row.
var Columns = []string{
	"City", "Gender", "Race", "Age", "Blood Type", "PosNeg",
	"Smoke", "Drug", "Alcohol", "AvgSleep",
}

// ignoredColumns are dropped before the required columns are checked.
var ignoredColumns = []string{"Time"}

// LoadCorpus reads the dataset at path and returns one comma-joined
// feature string per row. Every failure wraps ErrDataset.
func LoadCorpus(path string) ([]string, error) {
	ds, err := utils.ReadDataset(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataset, err)
	}
	for _, c := range ignoredColumns {
		ds.Drop(c)
	}

	rows, err := ds.Project(Columns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataset, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", ErrDataset, path)
	}

	corpus := make([]string, len(rows))
	for i, cells := range rows {
		corpus[i] = strings.Join(cells, ",")
	}
	return corpus, nil
}

func ensureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("artifact directory is not configured")
	}
	return os.MkdirAll(dir, 0o755)
}
