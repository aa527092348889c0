package extraction

import "unicode/utf8"

const maxDocumentRunes = 12000

// BuildPrompt renders the FNOL extraction instruction around the document.
func BuildPrompt(documentText string) string {
	return `Extract insurance claim data from this First Notice of Loss document.

DOCUMENT:
` + truncateRunes(documentText, maxDocumentRunes) + `

Return ONLY one JSON object with this shape:
{
  "extractedFields": {
    "policyNumber": "string",
    "policyholderName": "string",
    "effectiveDates": {"start": "YYYY-MM-DD", "end": "YYYY-MM-DD"},
    "incidentDate": "YYYY-MM-DD",
    "incidentTime": "HH:MM",
    "incidentLocation": {"street": "", "city": "", "state": "", "zip": "", "country": ""},
    "incidentDescription": "string",
    "claimant": {"name": "", "contactDetails": {"phone": "", "email": "", "address": ""}},
    "thirdParties": [{"name": "", "role": "", "contactDetails": ""}],
    "assetType": "vehicle | property | personal | other",
    "assetId": "string",
    "estimatedDamage": 0,
    "claimType": "property-damage | accident | damage | theft | injury | total-loss | other"
  },
  "missingFields": [{"field": "", "severity": "critical | important | optional"}],
  "inconsistentFields": [{"field": "", "issue": ""}],
  "routingDecision": {"queue": "fast-track | manual-review | specialist-queue | investigation", "confidence": 0.0, "reasoning": ""}
}

Rules:
- Use only facts stated in the document. Use null for anything not stated; never guess.
- estimatedDamage must be a plain number without currency symbols when the document states an amount.
- Dates must use YYYY-MM-DD.
- No markdown, no commentary, no extra keys.`
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
