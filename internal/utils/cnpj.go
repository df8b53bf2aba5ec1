package utils

import (
	"regexp"
	"strings"
)

// CNPJLength is the number of digits of a normalized CNPJ
const CNPJLength = 14

// Validation failure reasons
const (
	ReasonInvalidLength    = "invalid length"
	ReasonInvalidSequence  = "invalid sequence"
	ReasonInvalidCharacter = "invalid character"
	ReasonCheckDigit1      = "check digit 1 invalid"
	ReasonCheckDigit2      = "check digit 2 invalid"
)

var (
	nonDigit = regexp.MustCompile(`\D`)

	firstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	secondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// ValidationResult holds the outcome of a CNPJ checksum validation
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// CleanCNPJ removes all non-numeric characters from CNPJ
func CleanCNPJ(cnpj string) string {
	return nonDigit.ReplaceAllString(cnpj, "")
}

// NormalizeCNPJ strips non-digits and left-pads the result with zeros to 14 digits.
// Results longer than 14 digits are returned unpadded and untruncated.
func NormalizeCNPJ(raw string) string {
	cleaned := CleanCNPJ(raw)
	if len(cleaned) >= CNPJLength {
		return cleaned
	}
	return strings.Repeat("0", CNPJLength-len(cleaned)) + cleaned
}

// ValidateCNPJ checks length, degenerate sequences and both check digits of a
// normalized CNPJ.
func ValidateCNPJ(cnpj string) ValidationResult {
	if len(cnpj) != CNPJLength {
		return ValidationResult{Reason: ReasonInvalidLength}
	}

	if isAllSameDigit(cnpj) {
		return ValidationResult{Reason: ReasonInvalidSequence}
	}

	digits := make([]int, CNPJLength)
	for i := 0; i < CNPJLength; i++ {
		c := cnpj[i]
		if c < '0' || c > '9' {
			return ValidationResult{Reason: ReasonInvalidCharacter}
		}
		digits[i] = int(c - '0')
	}

	if calculateCheckDigit(digits[:12], firstWeights) != digits[12] {
		return ValidationResult{Reason: ReasonCheckDigit1}
	}

	if calculateCheckDigit(digits[:13], secondWeights) != digits[13] {
		return ValidationResult{Reason: ReasonCheckDigit2}
	}

	return ValidationResult{Valid: true}
}

// FormatCNPJ formats CNPJ with dots, slash and dash (XX.XXX.XXX/XXXX-XX)
func FormatCNPJ(cnpj string) string {
	cleaned := CleanCNPJ(cnpj)
	if len(cleaned) != CNPJLength {
		return cnpj
	}

	return cleaned[:2] + "." + cleaned[2:5] + "." + cleaned[5:8] + "/" + cleaned[8:12] + "-" + cleaned[12:14]
}

// CNPJInfo holds information about a CNPJ
type CNPJInfo struct {
	Original   string           `json:"original"`
	Normalized string           `json:"normalized"`
	Formatted  string           `json:"formatted,omitempty"`
	Validation ValidationResult `json:"validation"`
}

// AnalyzeCNPJ normalizes and validates a raw CNPJ string
func AnalyzeCNPJ(raw string) CNPJInfo {
	normalized := NormalizeCNPJ(raw)
	result := ValidateCNPJ(normalized)

	info := CNPJInfo{
		Original:   raw,
		Normalized: normalized,
		Validation: result,
	}
	if result.Valid {
		info.Formatted = FormatCNPJ(normalized)
	}

	return info
}

// isAllSameDigit checks if all characters in the string are the same
func isAllSameDigit(s string) bool {
	if len(s) == 0 {
		return false
	}

	first := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] != first {
			return false
		}
	}
	return true
}

// calculateCheckDigit calculates check digit using given weights
func calculateCheckDigit(digits []int, weights []int) int {
	sum := 0
	for i, digit := range digits {
		sum += digit * weights[i]
	}

	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}
