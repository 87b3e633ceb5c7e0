package domain

import (
	"sort"

	"github.com/inesdata/dataspace-tools/internal/edc"
)

// DownloadedDataset summarizes one dataset whose data has been pulled.
type DownloadedDataset struct {
	ID        string
	Name      string
	Filename  string
	Format    string
	Size      int
	HasImages bool
}

// DownloadsOverview lists downloaded datasets with totals.
type DownloadsOverview struct {
	Datasets  []DownloadedDataset
	Total     int
	Processed int
	TotalSize int
}

// Downloads builds the overview of a session. Datasets missing from the
// catalog snapshot are listed by id.
func (s *Session) Downloads() DownloadsOverview {
	overview := DownloadsOverview{Datasets: make([]DownloadedDataset, 0)}

	for id, ex := range s.Exchanges {
		if !ex.Transfer.Downloaded() {
			continue
		}
		item := DownloadedDataset{
			ID:        id,
			Name:      id,
			Filename:  "Unknown",
			Format:    "data",
			Size:      len(ex.Transfer.Data),
			HasImages: ex.Transfer.Images != nil,
		}
		if ds, ok := s.Dataset(id); ok {
			item.Name = ds.Name
			item.Filename = ds.Filename
			item.Format = FormatName(ds.Format)
		}

		overview.Datasets = append(overview.Datasets, item)
		overview.TotalSize += item.Size
		if item.HasImages {
			overview.Processed++
		}
	}

	sort.Slice(overview.Datasets, func(i, j int) bool {
		return overview.Datasets[i].ID < overview.Datasets[j].ID
	})
	overview.Total = len(overview.Datasets)
	return overview
}

// FormatName returns a printable format for a catalog format value, which
// may be a plain string or a JSON-LD object with an @id.
func FormatName(format any) string {
	switch v := format.(type) {
	case string:
		if v != "" && v != "Unknown" {
			return v
		}
	case map[string]any:
		if id, ok := v["@id"].(string); ok && id != "" {
			return id
		}
	}
	return "data"
}

// DownloadName is the file name offered when saving downloaded data.
func DownloadName(ds edc.Dataset) string {
	return ds.Name + "." + FormatName(ds.Format)
}
