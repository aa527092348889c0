package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

var candidateKeys = []string{
	"policyNumber", "policyholderName", "effectiveDates", "incidentDate", "incidentTime",
	"incidentLocation", "incidentDescription", "claimant", "thirdParties", "assetType",
	"assetId", "estimatedDamage", "claimType",
}

// ParseResponse turns free-form model output into an ExtractionResult.
// Anything that is not a usable JSON envelope is a malformed response.
func ParseResponse(raw string) (domain.ExtractionResult, error) {
	object, ok := FindJSONObject(raw)
	if !ok {
		return domain.ExtractionResult{}, malformed(errors.New("no JSON object in extraction output"))
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(object), &doc); err != nil {
		return domain.ExtractionResult{}, malformed(fmt.Errorf("decode extraction json: %w", err))
	}

	if _, ok := doc["extractedFields"]; !ok {
		if !hasAnyKey(doc, candidateKeys) {
			return domain.ExtractionResult{}, malformed(errors.New("extraction json has no claim fields"))
		}
		doc = map[string]any{"extractedFields": doc}
	}
	if err := validateEnvelope(doc); err != nil {
		return domain.ExtractionResult{}, malformed(err)
	}

	fields, _ := doc["extractedFields"].(map[string]any)
	return domain.ExtractionResult{
		Fields:               coerceFields(fields),
		AdvisoryRouting:      coerceRouting(doc["routingDecision"]),
		AdvisoryMissing:      coerceMissing(doc["missingFields"]),
		AdvisoryInconsistent: coerceInconsistent(doc["inconsistentFields"]),
	}, nil
}

// FindJSONObject returns the first balanced top-level {...} span that is valid
// JSON. Braces inside string literals are ignored and objects nested in an
// invalid span are never considered.
func FindJSONObject(raw string) (string, bool) {
	offset := 0
	for {
		idx := strings.IndexByte(raw[offset:], '{')
		if idx < 0 {
			return "", false
		}
		start := offset + idx
		end, ok := matchBrace(raw, start)
		if !ok {
			offset = start + 1
			continue
		}
		candidate := raw[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
		offset = end + 1
	}
}

func matchBrace(raw string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func hasAnyKey(doc map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := doc[k]; ok {
			return true
		}
	}
	return false
}

func malformed(err error) error {
	return domain.WrapError(domain.ErrMalformedExtractionResponse, "parse extraction response", err)
}
