// Package export persists optimization results and contact statistics
// as CSV files for downstream analysis. It is a pure consumer of the
// optimizer's result records.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"ctparticles/pkg/contacts"
	"ctparticles/pkg/optimizer"
)

// WriteSummaryCSV writes one row per tested radius plus the selection
// outcome columns.
func WriteSummaryCSV(summary *optimizer.Summary, path string) error {
	file, err := createWithDirs(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{
		"radius", "particle_count", "largest_particle_ratio", "mean_contacts",
		"interior_particle_count", "excluded_particle_count",
		"total_volume", "largest_particle_volume", "guard_margin",
		"hhi", "processing_time_s", "selected",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range summary.Results {
		selected := ""
		if r.Radius == summary.BestRadius {
			selected = summary.Reason
		}
		row := []string{
			strconv.Itoa(r.Radius),
			strconv.Itoa(r.ParticleCount),
			strconv.FormatFloat(r.LargestParticleRatio, 'f', 6, 64),
			strconv.FormatFloat(r.MeanContacts, 'f', 4, 64),
			strconv.Itoa(r.InteriorParticleCount),
			strconv.Itoa(r.ExcludedParticleCount),
			strconv.Itoa(r.TotalVolume),
			strconv.Itoa(r.LargestParticleVolume),
			strconv.Itoa(r.GuardMargin),
			strconv.FormatFloat(r.HHI, 'f', 6, 64),
			strconv.FormatFloat(r.ProcessingTime.Seconds(), 'f', 3, 64),
			selected,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for radius %d: %w", r.Radius, err)
		}
	}

	return w.Error()
}

// WriteContactCSV writes per-particle contact counts, sorted by
// particle id.
func WriteContactCSV(record *contacts.Record, path string) error {
	file, err := createWithDirs(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"particle_id", "contacts"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	counts := record.Counts()
	ids := make([]int32, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		row := []string{
			strconv.FormatInt(int64(id), 10),
			strconv.Itoa(counts[id]),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for particle %d: %w", id, err)
		}
	}

	return w.Error()
}

func createWithDirs(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, nil
}
