package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/internship-portal-api/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestGradeBoundaries(t *testing.T) {
	cases := map[int]string{
		100: "A+", 90: "A+", 89: "A", 85: "A", 84: "A-", 80: "A-",
		79: "B+", 75: "B+", 70: "B", 69: "B-", 65: "B-", 60: "C+",
		55: "C", 54: "C-", 50: "C-", 49: "D", 40: "D", 39: "F", 0: "F",
	}
	for total, want := range cases {
		assert.Equal(t, want, Grade(total), "total=%d", total)
	}
}

func TestGradeMonotonic(t *testing.T) {
	for low := 0; low <= 110; low++ {
		for high := low; high <= 110; high++ {
			require.LessOrEqual(t, GradeRank(Grade(low)), GradeRank(Grade(high)), "low=%d high=%d", low, high)
		}
	}
	assert.Equal(t, -1, GradeRank("Z"))
}

func TestCompanyMarksScaling(t *testing.T) {
	assert.Equal(t, 32, CompanyMarks(&models.CompanyEvaluation{TotalMarks: 32, MaxMarks: floatPtr(40)}))
	assert.Equal(t, 36, CompanyMarks(&models.CompanyEvaluation{TotalMarks: 18, MaxMarks: floatPtr(20)}))
	assert.Equal(t, 30, CompanyMarks(&models.CompanyEvaluation{TotalMarks: 30}))
	assert.Equal(t, 30, CompanyMarks(&models.CompanyEvaluation{TotalMarks: 30, MaxMarks: floatPtr(0)}))
	assert.Equal(t, 0, CompanyMarks(nil))
}

func TestCompanyMarksRoundsHalfUp(t *testing.T) {
	// 7/16*40 = 17.5
	assert.Equal(t, 18, CompanyMarks(&models.CompanyEvaluation{TotalMarks: 7, MaxMarks: floatPtr(16)}))
	// 1/3*40 = 13.33
	assert.Equal(t, 13, CompanyMarks(&models.CompanyEvaluation{TotalMarks: 1, MaxMarks: floatPtr(3)}))
	// 2/3*40 = 26.67
	assert.Equal(t, 27, CompanyMarks(&models.CompanyEvaluation{TotalMarks: 2, MaxMarks: floatPtr(3)}))
}

func TestAggregateScenario(t *testing.T) {
	sup := &models.SupervisorEvaluation{TotalMarks: 54}
	comp := &models.CompanyEvaluation{TotalMarks: 30, MaxMarks: floatPtr(40)}

	result := Aggregate(sup, comp)
	assert.Equal(t, 54, result.SupervisorMarks)
	assert.Equal(t, 30, result.CompanyMarks)
	assert.Equal(t, 84, result.TotalMarks)
	assert.Equal(t, "A-", result.Grade)

	assert.Equal(t, result, Aggregate(sup, comp))
}

func TestAggregateWithoutCompanyEvaluation(t *testing.T) {
	result := Aggregate(&models.SupervisorEvaluation{TotalMarks: 45}, nil)
	assert.Equal(t, 0, result.CompanyMarks)
	assert.Equal(t, 45, result.TotalMarks)
	assert.Equal(t, "D", result.Grade)
}
