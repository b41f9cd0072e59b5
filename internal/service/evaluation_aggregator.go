package service

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/internship-portal-api/internal/dto"
	"github.com/noah-isme/internship-portal-api/internal/models"
)

// CompanyMarksScale is the share of the final grade contributed by the company.
const CompanyMarksScale = 40

type gradeBand struct {
	min   int
	grade string
}

// gradeBands is evaluated top down; the first band whose minimum is met wins.
var gradeBands = []gradeBand{
	{90, "A+"},
	{85, "A"},
	{80, "A-"},
	{75, "B+"},
	{70, "B"},
	{65, "B-"},
	{60, "C+"},
	{55, "C"},
	{50, "C-"},
	{40, "D"},
}

const failingGrade = "F"

// Grade maps total marks to a letter grade.
func Grade(totalMarks int) string {
	for _, band := range gradeBands {
		if totalMarks >= band.min {
			return band.grade
		}
	}
	return failingGrade
}

// GradeRank orders grades from F (0) upwards. Unknown grades rank below F.
func GradeRank(grade string) int {
	if grade == failingGrade {
		return 0
	}
	for i, band := range gradeBands {
		if band.grade == grade {
			return len(gradeBands) - i
		}
	}
	return -1
}

// CompanyMarks rescales a company evaluation onto 40 points, rounding half up.
// A missing evaluation scores 0 and a missing or non-positive scale is taken as 40.
func CompanyMarks(eval *models.CompanyEvaluation) int {
	if eval == nil {
		return 0
	}
	maxMarks := decimal.NewFromInt(models.DefaultCompanyMaxMarks)
	if eval.MaxMarks != nil && *eval.MaxMarks > 0 {
		maxMarks = decimal.NewFromFloat(*eval.MaxMarks)
	}
	scaled := decimal.NewFromFloat(eval.TotalMarks).
		Mul(decimal.NewFromInt(CompanyMarksScale)).
		Div(maxMarks).
		Round(0)
	return int(scaled.IntPart())
}

// Aggregate combines both evaluations into the final result. Every view of a
// grade goes through this function so they agree exactly.
func Aggregate(supervisorEval *models.SupervisorEvaluation, companyEval *models.CompanyEvaluation) dto.FinalResult {
	supervisorMarks := 0
	if supervisorEval != nil {
		supervisorMarks = supervisorEval.TotalMarks
	}
	companyMarks := CompanyMarks(companyEval)
	total := supervisorMarks + companyMarks
	return dto.FinalResult{
		SupervisorMarks: supervisorMarks,
		CompanyMarks:    companyMarks,
		TotalMarks:      total,
		Grade:           Grade(total),
	}
}
