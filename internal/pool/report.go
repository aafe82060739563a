package pool

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spigell/affinity-ranker/internal/affinity"
	"github.com/spigell/affinity-ranker/internal/ranking"
)

// DumpToTmpFile writes the batch as indented JSON to a new temp file and
// returns its path.
func DumpToTmpFile(batch *ranking.BatchResult) (string, error) {
	file, err := os.CreateTemp("", "ranking_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(batch); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByLevel groups ranked candidates by affinity level, best first.
func ReportByLevel(ranked []*ranking.RankedCandidate) map[affinity.Level][]map[string]string {
	report := make(map[affinity.Level][]map[string]string)
	for _, rc := range ranked {
		entry := map[string]string{
			"candidate":   fmt.Sprintf("%s (%d)", rc.Candidate.Name, rc.Candidate.ID),
			"score":       fmt.Sprintf("%.2f", rc.Score),
			"coverage":    fmt.Sprintf("%d%%", rc.Affinity.Coverage),
			"profamily":   string(rc.Affinity.Factors.ProfamilyAffinity.Level),
			"explanation": rc.Affinity.Explanation,
		}

		if rc.Analytics != nil {
			missing := make([]string, 0, len(rc.Analytics.SkillGap.Missing))
			for _, m := range rc.Analytics.SkillGap.Missing {
				missing = append(missing, m.Skill)
			}
			if len(missing) > 0 {
				entry["missing"] = strings.Join(missing, ", ")
			}
			entry["unique value"] = fmt.Sprintf("%.2f", rc.Analytics.UniqueValue)
		}

		if rc.Error != "" {
			entry["error"] = rc.Error
		}

		report[rc.Affinity.Level] = append(report[rc.Affinity.Level], entry)
	}
	return report
}
