package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/luisquicidev/easydiet-backend/internal/domain/diet"
	"github.com/luisquicidev/easydiet-backend/internal/modules/diet/prompts"
	"github.com/luisquicidev/easydiet-backend/internal/platform/apierr"
)

var ErrInvalidCalculationResponse = errors.New("invalid calculation response")

type calculationReply struct {
	Formula        string `json:"formula"`
	Tmb            Number `json:"tmb"`
	Ger            Number `json:"ger"`
	ActivityFactor Number `json:"activity_factor"`
	ObjectivePct   Number `json:"objective_pct"`
	TmbFormulas    []struct {
		Name  string `json:"name"`
		Value Number `json:"value"`
	} `json:"tmb_formulas"`
	Mets []struct {
		Code            string `json:"code"`
		Description     string `json:"description"`
		Factor          Number `json:"factor"`
		WeeklyFrequency Number `json:"weekly_frequency"`
		DurationMinutes Number `json:"duration_minutes"`
	} `json:"mets"`
	Plans []struct {
		Name          string `json:"name"`
		TotalCalories Number `json:"total_calories"`
		Application   string `json:"application"`
	} `json:"plans"`
	Warnings []string `json:"warnings"`
}

// MetEntry is an activity as the model reported it; the code is resolved
// against the reference table before persisting.
type MetEntry struct {
	Code            string
	Description     string
	Factor          float64
	WeeklyFrequency int
	DurationMinutes int
}

type PlanTarget struct {
	Name          string
	TotalCalories float64
	Macros        diet.Macros
	Application   string
}

type CalculationResult struct {
	Formula        string
	Tmb            float64
	Ger            float64
	ActivityFactor float64
	ObjectivePct   float64
	Formulas       []diet.CalculationFormula
	Mets           []MetEntry
	Plans          []PlanTarget
	Warnings       []string
}

// CalculationContext carries the profile values macro derivation needs.
type CalculationContext struct {
	WeightKg     float64
	Goal         string
	ObjectivePct float64
}

// ValidateCalculation checks a phase 1 reply. Missing tmb, ger or plans is an
// InvalidCalculationResponse; optional arrays default to empty and numbers
// are coerced.
func ValidateCalculation(doc []byte, cc CalculationContext) (*CalculationResult, error) {
	const op = "validation.ValidateCalculation"
	if err := CheckSchema(prompts.PromptCalculation, doc); err != nil {
		return nil, apierr.E(apierr.ValidationFailure, op, fmt.Errorf("%w: %v", ErrInvalidCalculationResponse, err))
	}
	var r calculationReply
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, apierr.E(apierr.ValidationFailure, op, fmt.Errorf("%w: %v", ErrInvalidCalculationResponse, err))
	}
	if r.Tmb.Float() <= 0 || r.Ger.Float() <= 0 || len(r.Plans) == 0 {
		return nil, apierr.E(apierr.ValidationFailure, op, fmt.Errorf("%w: tmb, ger and plans are required", ErrInvalidCalculationResponse))
	}

	out := &CalculationResult{
		Formula:        strings.TrimSpace(r.Formula),
		Tmb:            round1(r.Tmb.Float()),
		Ger:            round1(r.Ger.Float()),
		ActivityFactor: r.ActivityFactor.Float(),
		ObjectivePct:   r.ObjectivePct.Float(),
		Formulas:       []diet.CalculationFormula{},
		Mets:           []MetEntry{},
		Plans:          make([]PlanTarget, 0, len(r.Plans)),
		Warnings:       append([]string{}, r.Warnings...),
	}
	if !r.ObjectivePct.Valid {
		out.ObjectivePct = cc.ObjectivePct
	}
	if out.ActivityFactor == 0 && out.Tmb > 0 {
		out.ActivityFactor = math.Round(out.Ger/out.Tmb*100) / 100
	}
	for _, f := range r.TmbFormulas {
		out.Formulas = append(out.Formulas, diet.CalculationFormula{Name: strings.TrimSpace(f.Name), Value: round1(f.Value.Float())})
	}
	for _, m := range r.Mets {
		out.Mets = append(out.Mets, MetEntry{
			Code:            strings.TrimSpace(m.Code),
			Description:     strings.TrimSpace(m.Description),
			Factor:          m.Factor.Float(),
			WeeklyFrequency: int(math.Round(m.WeeklyFrequency.Float())),
			DurationMinutes: int(math.Round(m.DurationMinutes.Float())),
		})
	}

	seen := map[string]bool{}
	for _, p := range r.Plans {
		name := strings.TrimSpace(p.Name)
		kcal := math.Round(p.TotalCalories.Float())
		if kcal <= 0 {
			return nil, apierr.E(apierr.ValidationFailure, op, fmt.Errorf("%w: plan %q has no calories", ErrInvalidCalculationResponse, name))
		}
		if seen[name] {
			return nil, apierr.E(apierr.ValidationFailure, op, fmt.Errorf("%w: duplicate plan %q", ErrInvalidCalculationResponse, name))
		}
		seen[name] = true
		out.Plans = append(out.Plans, PlanTarget{
			Name:          name,
			TotalCalories: kcal,
			Macros:        DeriveMacros(kcal, cc.WeightKg, cc.Goal),
			Application:   strings.TrimSpace(p.Application),
		})
	}
	return out, nil
}
