package staleness

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/anticorrelator/lore/internal/errs"
)

type reportJSON struct {
	ScanTime     string           `json:"scan_time"`
	KnowledgeDir string           `json:"knowledge_dir"`
	RepoRoot     string           `json:"repo_root"`
	TotalEntries int              `json:"total_entries"`
	Counts       countsJSON       `json:"counts"`
	Entries      []entryJSON      `json:"entries"`
}

type countsJSON struct {
	Fresh int `json:"fresh"`
	Aging int `json:"aging"`
	Stale int `json:"stale"`
}

type entryJSON struct {
	File         string              `json:"file"`
	Status       string              `json:"status"`
	DriftScore   float64             `json:"drift_score"`
	Signals      signalsJSON         `json:"signals"`
	Learned      string              `json:"learned,omitempty"`
	Confidence   string              `json:"confidence,omitempty"`
	AgeDays      *int                `json:"age_days,omitempty"`
	RelatedFiles *relatedFilesJSON   `json:"related_files,omitempty"`
}

type signalsJSON struct {
	FileDrift       fileDriftJSON       `json:"file_drift"`
	BacklinkDrift   backlinkDriftJSON   `json:"backlink_drift"`
	NeighborDrift   neighborDriftJSON   `json:"neighbor_drift"`
	VocabularyDrift vocabularyDriftJSON `json:"vocabulary_drift"`
	Confidence      confidenceJSON      `json:"confidence"`
}

type fileDriftJSON struct {
	Weight      float64 `json:"weight"`
	Score       float64 `json:"score"`
	Available   bool    `json:"available"`
	CommitCount int     `json:"commit_count"`
}

type backlinkDriftJSON struct {
	Weight    float64  `json:"weight"`
	Score     float64  `json:"score"`
	Available bool     `json:"available"`
	Total     int      `json:"total"`
	Broken    int      `json:"broken"`
}

type neighborDriftJSON struct {
	Weight    float64           `json:"weight"`
	Score     float64           `json:"score"`
	Available bool              `json:"available"`
	Detail    *neighborDetail   `json:"detail,omitempty"`
}

type neighborDetail struct {
	NeighborsChecked int     `json:"neighbors_checked"`
	NeighborsUpdated int     `json:"neighbors_updated"`
	WeightedScore    float64 `json:"weighted_score"`
}

type vocabularyDriftJSON struct {
	Weight    float64          `json:"weight"`
	Score     float64          `json:"score"`
	Available bool             `json:"available"`
	Detail    *vocabularyDetail `json:"detail,omitempty"`
}

type vocabularyDetail struct {
	TopKTerms   int `json:"top_k_terms"`
	AbsentTerms int `json:"absent_terms"`
}

type confidenceJSON struct {
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
	Level  string  `json:"level"`
}

type relatedFilesJSON struct {
	Existing []string `json:"existing"`
	Missing  []string `json:"missing"`
	Total    int      `json:"total"`
}

// toJSON converts a Report into the wire structure written to disk.
func (r *Report) toJSON() reportJSON {
	out := reportJSON{
		ScanTime:     r.ScanTime.Format("2006-01-02T15:04:05Z"),
		KnowledgeDir: r.KnowledgeDir,
		RepoRoot:     r.RepoRoot,
		TotalEntries: r.TotalEntries,
		Counts:       countsJSON{Fresh: r.Fresh, Aging: r.Aging, Stale: r.Stale},
	}

	for _, e := range r.Entries {
		ej := entryJSON{
			File:       e.File,
			Status:     string(e.Status),
			DriftScore: e.DriftScore,
			Learned:    e.Learned,
			Confidence: e.Confidence,
			Signals: signalsJSON{
				FileDrift: fileDriftJSON{
					Weight:      e.Signals.FileDrift.Weight,
					Score:       e.Signals.FileDrift.Score,
					Available:   e.Signals.FileDrift.Available,
					CommitCount: e.Signals.FileDriftDetail.CommitCount,
				},
				BacklinkDrift: backlinkDriftJSON{
					Weight:    e.Signals.BacklinkDrift.Weight,
					Score:     e.Signals.BacklinkDrift.Score,
					Available: e.Signals.BacklinkDrift.Available,
					Total:     e.Signals.BacklinkDriftDetail.Total,
					Broken:    e.Signals.BacklinkDriftDetail.Broken,
				},
				NeighborDrift: neighborDriftJSON{
					Weight:    e.Signals.NeighborDrift.Weight,
					Score:     e.Signals.NeighborDrift.Score,
					Available: e.Signals.NeighborDrift.Available,
				},
				VocabularyDrift: vocabularyDriftJSON{
					Weight:    e.Signals.VocabularyDrift.Weight,
					Score:     e.Signals.VocabularyDrift.Score,
					Available: e.Signals.VocabularyDrift.Available,
				},
				Confidence: confidenceJSON{
					Weight: e.Signals.Confidence.Weight,
					Score:  e.Signals.Confidence.Score,
					Level:  e.Signals.ConfidenceLevel,
				},
			},
		}
		if e.AgeDays >= 0 {
			days := e.AgeDays
			ej.AgeDays = &days
		}
		if e.Signals.NeighborDriftDetail.Available {
			ej.Signals.NeighborDrift.Detail = &neighborDetail{
				NeighborsChecked: e.Signals.NeighborDriftDetail.NeighborsChecked,
				NeighborsUpdated: e.Signals.NeighborDriftDetail.NeighborsUpdated,
				WeightedScore:    e.Signals.NeighborDriftDetail.Score,
			}
		}
		if e.Signals.VocabularyDriftDetail.Available {
			ej.Signals.VocabularyDrift.Detail = &vocabularyDetail{
				TopKTerms:   e.Signals.VocabularyDriftDetail.TopKTerms,
				AbsentTerms: e.Signals.VocabularyDriftDetail.AbsentCount,
			}
		}
		if e.RelatedFiles != nil {
			ej.RelatedFiles = &relatedFilesJSON{
				Existing: e.RelatedFiles.Existing,
				Missing:  e.RelatedFiles.Missing,
				Total:    e.RelatedFiles.Total,
			}
		}
		out.Entries = append(out.Entries, ej)
	}

	return out
}

// WriteReport marshals the report as indented JSON to
// <knowledgeDir>/_meta/staleness-report.json. No error here should abort a
// calling scan command; the caller decides whether to surface it.
func (r *Report) WriteReport(knowledgeDir string) error {
	dir := filepath.Join(knowledgeDir, "_meta")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.ErrCodeReportWriteFail, err)
	}

	data, err := json.MarshalIndent(r.toJSON(), "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrCodeReportWriteFail, err)
	}

	path := filepath.Join(dir, "staleness-report.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.ErrCodeReportWriteFail, err)
	}
	return nil
}
