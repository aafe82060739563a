package affinity

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

const (
	MinLevel = 1
	MaxLevel = 5
)

const (
	fieldRequirements = "requirementSkills"
	fieldPossession   = "possessedSkills"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type skillEntry struct {
	Name  string `validate:"required"`
	Level int    `validate:"min=1,max=5"`
}

// input is a validated and normalized calculation request.
type input struct {
	requirements Requirements
	possessed    Possession
	options      Options
}

// NormalizeRequirements validates a requirement list and returns it with
// canonical skill names, in the same order.
func NormalizeRequirements(req Requirements) (Requirements, error) {
	return normalizeRequirements(req)
}

func normalizeInput(req Requirements, possessed Possession, opts Options) (input, error) {
	normalizedReq, err := normalizeRequirements(req)
	if err != nil {
		return input{}, err
	}

	normalizedPossessed, err := normalizePossession(possessed)
	if err != nil {
		return input{}, err
	}

	normalizedOpts, err := normalizeOptions(opts)
	if err != nil {
		return input{}, err
	}

	return input{
		requirements: normalizedReq,
		possessed:    normalizedPossessed,
		options:      normalizedOpts,
	}, nil
}

func normalizeRequirements(req Requirements) (Requirements, error) {
	if req == nil {
		return nil, &ValidationError{Field: fieldRequirements, Reason: "must not be nil"}
	}

	seen := make(map[string]struct{}, len(req))
	normalized := make(Requirements, 0, len(req))
	for i, r := range req {
		name := NormalizeSkill(r.Skill)
		field := fmt.Sprintf("%s[%d]", fieldRequirements, i)
		if name != "" {
			field = fmt.Sprintf("%s[%s]", fieldRequirements, name)
		}

		if err := validate.Struct(skillEntry{Name: name, Level: r.Level}); err != nil {
			return nil, entryError(field, err)
		}
		if _, dup := seen[name]; dup {
			return nil, &ValidationError{Field: field, Reason: "is listed more than once"}
		}

		seen[name] = struct{}{}
		normalized = append(normalized, Requirement{Skill: name, Level: r.Level})
	}

	return normalized, nil
}

func normalizePossession(possessed Possession) (Possession, error) {
	if possessed == nil {
		return nil, &ValidationError{Field: fieldPossession, Reason: "must not be nil"}
	}

	normalized := make(Possession, len(possessed))
	for skill, level := range possessed {
		name := NormalizeSkill(skill)
		field := fmt.Sprintf("%s[%s]", fieldPossession, name)

		if err := validate.Struct(skillEntry{Name: name, Level: level}); err != nil {
			return nil, entryError(field, err)
		}
		if _, dup := normalized[name]; dup {
			return nil, &ValidationError{Field: field, Reason: "is listed more than once"}
		}

		normalized[name] = level
	}

	return normalized, nil
}

func normalizeOptions(opts Options) (Options, error) {
	if err := validate.Struct(opts); err != nil {
		return Options{}, entryError("verificationStatus", err)
	}

	ids := slices.Clone(opts.RequirementProfamilyIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	var profamilyID *int
	if opts.ProfamilyID != nil {
		id := *opts.ProfamilyID
		profamilyID = &id
	}

	return Options{
		ProfamilyID:             profamilyID,
		RequirementProfamilyIDs: ids,
		VerificationStatus:      opts.Status(),
	}, nil
}

func entryError(field string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: field, Reason: err.Error()}
	}

	fe := verrs[0]
	return &ValidationError{Field: field, Value: fe.Value(), Reason: describeTag(fe)}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
