package errors

import (
	"fmt"
	"strings"
)

// SuggestPolicyKind suggests a known policy kind when an unrecognized one is used.
// It uses Levenshtein distance to catch typos such as "better-invok".
func SuggestPolicyKind(unknown string, validKinds []string) string {
	if len(validKinds) == 0 {
		return ""
	}

	best, dist := closest(unknown, validKinds)
	if dist > 0 && dist < 4 {
		return fmt.Sprintf("Did you mean '%s'?", best)
	}
	return ""
}

// SuggestFieldName suggests a field name when an unknown field is found.
func SuggestFieldName(unknown string, validFields []string) string {
	if len(validFields) == 0 {
		return ""
	}

	best, dist := closest(unknown, validFields)
	if dist < 5 {
		return fmt.Sprintf("Did you mean '%s'?", best)
	}

	if len(validFields) > 5 {
		return fmt.Sprintf("Valid fields include: %s, ...", strings.Join(validFields[:5], ", "))
	}
	return fmt.Sprintf("Valid fields: %s", strings.Join(validFields, ", "))
}

// SuggestMissingField suggests adding a required field.
func SuggestMissingField(fieldName string, exampleValue string) string {
	if exampleValue != "" {
		return fmt.Sprintf("Add '%s: %s'", fieldName, exampleValue)
	}
	return fmt.Sprintf("Add the '%s' field", fieldName)
}

func closest(unknown string, candidates []string) (string, int) {
	minDistance := 1000
	var bestMatch string
	for _, c := range candidates {
		if d := levenshteinDistance(unknown, c); d < minDistance {
			minDistance = d
			bestMatch = c
		}
	}
	return bestMatch, minDistance
}

// levenshteinDistance computes the Levenshtein distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	len1 := len(s1)
	len2 := len(s2)

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}
	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len1][len2]
}
