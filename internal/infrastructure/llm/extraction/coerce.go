package extraction

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/claims-triage/internal/core/domain"
)

var placeholders = map[string]struct{}{
	"":              {},
	"-":             {},
	"n/a":           {},
	"na":            {},
	"null":          {},
	"nil":           {},
	"none":          {},
	"unknown":       {},
	"not provided":  {},
	"not available": {},
	"not stated":    {},
	"not specified": {},
}

var assetAliases = map[string]domain.AssetType{
	"vehicle":             domain.AssetVehicle,
	"car":                 domain.AssetVehicle,
	"auto":                domain.AssetVehicle,
	"automobile":          domain.AssetVehicle,
	"truck":               domain.AssetVehicle,
	"van":                 domain.AssetVehicle,
	"motorcycle":          domain.AssetVehicle,
	"bike":                domain.AssetVehicle,
	"two-wheeler":         domain.AssetVehicle,
	"property":            domain.AssetProperty,
	"home":                domain.AssetProperty,
	"house":               domain.AssetProperty,
	"building":            domain.AssetProperty,
	"residence":           domain.AssetProperty,
	"real-estate":         domain.AssetProperty,
	"personal":            domain.AssetPersonal,
	"personal-property":   domain.AssetPersonal,
	"personal-belongings": domain.AssetPersonal,
	"belongings":          domain.AssetPersonal,
	"other":               domain.AssetOther,
}

var claimAliases = map[string]domain.ClaimType{
	"property-damage": domain.ClaimPropertyDamage,
	"propertydamage":  domain.ClaimPropertyDamage,
	"accident":        domain.ClaimAccident,
	"collision":       domain.ClaimAccident,
	"crash":           domain.ClaimAccident,
	"car-accident":    domain.ClaimAccident,
	"damage":          domain.ClaimDamage,
	"theft":           domain.ClaimTheft,
	"burglary":        domain.ClaimTheft,
	"robbery":         domain.ClaimTheft,
	"stolen":          domain.ClaimTheft,
	"injury":          domain.ClaimInjury,
	"bodily-injury":   domain.ClaimInjury,
	"personal-injury": domain.ClaimInjury,
	"total-loss":      domain.ClaimTotalLoss,
	"totalled":        domain.ClaimTotalLoss,
	"totaled":         domain.ClaimTotalLoss,
	"write-off":       domain.ClaimTotalLoss,
	"other":           domain.ClaimOther,
}

var (
	reAmount        = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)
	reCurrencyNoise = regexp.MustCompile(`[\s₹$€£¥/.,\-]+`)
	currencyWords   = map[string]struct{}{"": {}, "rs": {}, "inr": {}, "usd": {}, "eur": {}, "gbp": {}, "rupees": {}, "dollars": {}}
)

func coerceFields(m map[string]any) domain.CandidateFields {
	if m == nil {
		return domain.CandidateFields{}
	}
	fields := domain.CandidateFields{
		PolicyNumber:        text(m["policyNumber"]),
		PolicyholderName:    text(m["policyholderName"]),
		EffectiveDates:      coerceDateRange(m["effectiveDates"]),
		IncidentDate:        text(m["incidentDate"]),
		IncidentTime:        text(m["incidentTime"]),
		IncidentLocation:    coerceLocation(m["incidentLocation"]),
		IncidentDescription: text(m["incidentDescription"]),
		Claimant:            coerceClaimant(m["claimant"]),
		ThirdParties:        coerceThirdParties(m["thirdParties"]),
		AssetType:           coerceAssetType(m["assetType"]),
		AssetID:             text(m["assetId"]),
		ClaimType:           coerceClaimType(m["claimType"]),
	}
	fields.EstimatedDamage, fields.EstimatedDamageRaw = coerceAmount(m["estimatedDamage"])
	return fields
}

// text returns a trimmed string value, with placeholders treated as absent.
func text(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
	if _, ok := placeholders[strings.ToLower(s)]; ok {
		return ""
	}
	return s
}

func coerceDateRange(v any) *domain.DateRange {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	r := &domain.DateRange{
		Start: firstText(m, "start", "from", "startDate"),
		End:   firstText(m, "end", "to", "endDate"),
	}
	if r.IsZero() {
		return nil
	}
	return r
}

func coerceLocation(v any) *domain.Location {
	var loc domain.Location
	switch t := v.(type) {
	case string:
		loc.Street = text(t)
	case map[string]any:
		loc = domain.Location{
			Street:  firstText(t, "street", "address", "line1"),
			City:    firstText(t, "city", "town"),
			State:   firstText(t, "state", "province", "region"),
			Zip:     firstText(t, "zip", "zipCode", "postalCode", "pincode"),
			Country: firstText(t, "country"),
		}
	}
	if loc.IsZero() {
		return nil
	}
	return &loc
}

func coerceClaimant(v any) *domain.Claimant {
	var c domain.Claimant
	switch t := v.(type) {
	case string:
		c.Name = text(t)
	case map[string]any:
		c.Name = text(t["name"])
		c.ContactDetails = coerceContact(t["contactDetails"])
		// Flat phone/email keys are common in model output.
		if c.ContactDetails.Phone == "" {
			c.ContactDetails.Phone = text(t["phone"])
		}
		if c.ContactDetails.Email == "" {
			c.ContactDetails.Email = text(t["email"])
		}
		if c.ContactDetails.Address == "" {
			c.ContactDetails.Address = text(t["address"])
		}
	}
	if c.IsZero() {
		return nil
	}
	return &c
}

func coerceContact(v any) domain.ContactDetails {
	switch t := v.(type) {
	case map[string]any:
		return domain.ContactDetails{
			Phone:   text(t["phone"]),
			Email:   text(t["email"]),
			Address: text(t["address"]),
		}
	case string:
		s := text(t)
		if strings.Contains(s, "@") && !strings.ContainsAny(s, " ,;") {
			return domain.ContactDetails{Email: s}
		}
		return domain.ContactDetails{Phone: s}
	default:
		return domain.ContactDetails{}
	}
}

func coerceThirdParties(v any) []domain.ThirdParty {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]domain.ThirdParty, 0, len(items))
	for _, item := range items {
		var tp domain.ThirdParty
		switch t := item.(type) {
		case string:
			tp.Name = text(t)
		case map[string]any:
			tp = domain.ThirdParty{
				Name:           text(t["name"]),
				Role:           text(t["role"]),
				ContactDetails: contactString(t["contactDetails"]),
			}
		}
		if tp == (domain.ThirdParty{}) {
			continue
		}
		out = append(out, tp)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func contactString(v any) string {
	if m, ok := v.(map[string]any); ok {
		c := coerceContact(m)
		parts := make([]string, 0, 3)
		for _, p := range []string{c.Phone, c.Email, c.Address} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, ", ")
	}
	return text(v)
}

func coerceAssetType(v any) domain.AssetType {
	raw := text(v)
	if raw == "" {
		return ""
	}
	if t, ok := assetAliases[domain.NormalizeEnumToken(raw)]; ok {
		return t
	}
	return domain.AssetType(raw)
}

func coerceClaimType(v any) domain.ClaimType {
	raw := text(v)
	if raw == "" {
		return ""
	}
	if t, ok := claimAliases[domain.NormalizeEnumToken(raw)]; ok {
		return t
	}
	return domain.ClaimType(raw)
}

// coerceAmount reads a damage figure. A token that is present but not a
// single readable amount comes back as raw text instead of a number.
func coerceAmount(v any) (*float64, string) {
	switch t := v.(type) {
	case float64:
		return &t, ""
	case string:
		s := text(t)
		if s == "" {
			return nil, ""
		}
		if amount, ok := parseMoney(s); ok {
			return &amount, ""
		}
		return nil, s
	default:
		return nil, ""
	}
}

func parseMoney(s string) (float64, bool) {
	matches := reAmount.FindAllString(s, -1)
	if len(matches) != 1 {
		return 0, false
	}
	rest := strings.ToLower(strings.Replace(s, matches[0], "", 1))
	rest = reCurrencyNoise.ReplaceAllString(rest, "")
	if _, ok := currencyWords[rest]; !ok {
		return 0, false
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(matches[0], ",", ""), 64)
	if err != nil || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return 0, false
	}
	return amount, true
}

func coerceRouting(v any) *domain.RoutingDecision {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	d := &domain.RoutingDecision{
		Queue:     domain.Queue(domain.NormalizeEnumToken(text(m["queue"]))),
		Reasoning: text(m["reasoning"]),
	}
	switch c := m["confidence"].(type) {
	case float64:
		d.Confidence = c
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(c), 64); err == nil {
			d.Confidence = f
		}
	}
	if d.Queue == "" && d.Reasoning == "" && d.Confidence == 0 {
		return nil
	}
	return d
}

func coerceMissing(v any) []domain.MissingFieldEntry {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]domain.MissingFieldEntry, 0, len(items))
	for _, item := range items {
		var entry domain.MissingFieldEntry
		switch t := item.(type) {
		case string:
			entry.Field = text(t)
		case map[string]any:
			entry.Field = text(t["field"])
			entry.Severity = domain.Severity(strings.ToLower(text(t["severity"])))
		}
		if entry.Field != "" {
			out = append(out, entry)
		}
	}
	return out
}

func coerceInconsistent(v any) []domain.InconsistentFieldEntry {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]domain.InconsistentFieldEntry, 0, len(items))
	for _, item := range items {
		var entry domain.InconsistentFieldEntry
		switch t := item.(type) {
		case string:
			entry.Field = text(t)
		case map[string]any:
			entry.Field = text(t["field"])
			entry.Issue = text(t["issue"])
		}
		if entry.Field != "" {
			out = append(out, entry)
		}
	}
	return out
}

func firstText(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := text(m[k]); s != "" {
			return s
		}
	}
	return ""
}
