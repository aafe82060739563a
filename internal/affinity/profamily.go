package affinity

import "slices"

// ResolveProfamily scores the candidate's professional family against the
// families accepted by the requirement. Rules are evaluated in order.
func (w Weights) ResolveProfamily(candidateID *int, requirementIDs []int, status VerificationStatus) ProfamilyAffinity {
	if candidateID == nil {
		return ProfamilyAffinity{
			Score:   w.NeutralProfamily,
			Level:   ProfamilyNone,
			Details: "Sin familia profesional definida",
		}
	}

	if len(requirementIDs) == 0 {
		return ProfamilyAffinity{
			Score:   w.NeutralProfamily,
			Level:   ProfamilyNeutral,
			Details: "Oferta sin familias profesionales especificadas",
		}
	}

	if slices.Contains(requirementIDs, *candidateID) {
		if status == StatusVerified {
			return ProfamilyAffinity{
				Score:   w.VerifiedExactMatch,
				Level:   ProfamilyExactMatch,
				Details: "Familia profesional verificada coincide exactamente",
			}
		}
		return ProfamilyAffinity{
			Score:   w.UnverifiedExactMatch,
			Level:   ProfamilyExactMatch,
			Details: "Familia profesional no verificada coincide exactamente",
		}
	}

	// TODO: emit ProfamilyRelatedMatch once product defines which families
	// count as related to each other.
	return ProfamilyAffinity{
		Score:   w.NoMatchProfamily,
		Level:   ProfamilyNoMatch,
		Details: "Familia profesional no coincide con la oferta",
	}
}
