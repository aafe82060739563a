package affinity

import "fmt"

// Classify maps a score and a coverage percentage to a level. The first row of
// the table whose thresholds are both reached wins.
func (w Weights) Classify(score float64, coverage int) Level {
	for _, row := range w.Levels {
		if score >= row.MinScore && coverage >= row.MinCoverage {
			return row.Level
		}
	}

	if score > 0 || coverage > 0 {
		return LevelLow
	}
	return LevelNoData
}

var explanations = map[Level]string{
	LevelVeryHigh: "%d/%d habilidades coincidentes (%d%% cobertura). Candidato excepcional con excelente afinidad para el puesto. Altamente recomendado para entrevista inmediata.",
	LevelHigh:     "%d/%d habilidades coincidentes (%d%% cobertura). Candidato sólido con buena afinidad. Recomendado para proceso de selección.",
	LevelMedium:   "%d/%d habilidades coincidentes (%d%% cobertura). Candidato con potencial moderado. Revisar experiencia específica y considerar entrevista.",
	LevelLow:      "%d/%d habilidades coincidentes (%d%% cobertura). Afinidad limitada. Evaluar si el candidato puede desarrollar habilidades faltantes.",
}

// Explain renders the human readable explanation for a level.
func Explain(level Level, matches, totalRequired, coverage int) string {
	tmpl, ok := explanations[level]
	if !ok {
		return "No se encontraron datos suficientes para evaluar la afinidad. Revisar perfil del candidato."
	}
	return fmt.Sprintf(tmpl, matches, totalRequired, coverage)
}
