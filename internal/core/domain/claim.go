package domain

import (
	"strings"
	"time"
)

type AssetType string

const (
	AssetVehicle  AssetType = "vehicle"
	AssetProperty AssetType = "property"
	AssetPersonal AssetType = "personal"
	AssetOther    AssetType = "other"
)

func (t AssetType) Valid() bool {
	switch t {
	case AssetVehicle, AssetProperty, AssetPersonal, AssetOther:
		return true
	default:
		return false
	}
}

type ClaimType string

const (
	ClaimPropertyDamage ClaimType = "property-damage"
	ClaimAccident       ClaimType = "accident"
	ClaimDamage         ClaimType = "damage"
	ClaimTheft          ClaimType = "theft"
	ClaimInjury         ClaimType = "injury"
	ClaimTotalLoss      ClaimType = "total-loss"
	ClaimOther          ClaimType = "other"
)

func (t ClaimType) Valid() bool {
	switch t {
	case ClaimPropertyDamage, ClaimAccident, ClaimDamage, ClaimTheft, ClaimInjury, ClaimTotalLoss, ClaimOther:
		return true
	default:
		return false
	}
}

type Queue string

const (
	QueueFastTrack     Queue = "fast-track"
	QueueManualReview  Queue = "manual-review"
	QueueSpecialist    Queue = "specialist-queue"
	QueueInvestigation Queue = "investigation"
)

func (q Queue) Valid() bool {
	switch q {
	case QueueFastTrack, QueueManualReview, QueueSpecialist, QueueInvestigation:
		return true
	default:
		return false
	}
}

// Queues lists the routing queues in display order.
func Queues() []Queue {
	return []Queue{QueueFastTrack, QueueManualReview, QueueSpecialist, QueueInvestigation}
}

type ClaimStatus string

const (
	ClaimStatusPending       ClaimStatus = "pending"
	ClaimStatusProcessing    ClaimStatus = "processing"
	ClaimStatusApproved      ClaimStatus = "approved"
	ClaimStatusRejected      ClaimStatus = "rejected"
	ClaimStatusInvestigating ClaimStatus = "investigating"
	ClaimStatusCompleted     ClaimStatus = "completed"
)

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimStatusPending, ClaimStatusProcessing, ClaimStatusApproved, ClaimStatusRejected, ClaimStatusInvestigating, ClaimStatusCompleted:
		return true
	default:
		return false
	}
}

type Severity string

const (
	SeverityCritical  Severity = "critical"
	SeverityImportant Severity = "important"
	SeverityOptional  Severity = "optional"
)

type MissingFieldEntry struct {
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
}

type InconsistentFieldEntry struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type RoutingDecision struct {
	Queue      Queue   `json:"queue"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

func (r *DateRange) IsZero() bool {
	return r == nil || (r.Start == "" && r.End == "")
}

type Location struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

func (l Location) IsZero() bool {
	return l == Location{}
}

type ContactDetails struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type Claimant struct {
	Name           string         `json:"name,omitempty"`
	ContactDetails ContactDetails `json:"contactDetails"`
}

func (c Claimant) IsZero() bool {
	return c == Claimant{}
}

type ThirdParty struct {
	Name           string `json:"name,omitempty"`
	Role           string `json:"role,omitempty"`
	ContactDetails string `json:"contactDetails,omitempty"`
}

// CandidateFields is the extraction service's structured guess. Absent strings
// are empty, an absent amount is nil. Values are never invented to fill gaps.
type CandidateFields struct {
	PolicyNumber        string       `json:"policyNumber,omitempty"`
	PolicyholderName    string       `json:"policyholderName,omitempty"`
	EffectiveDates      *DateRange   `json:"effectiveDates,omitempty"`
	IncidentDate        string       `json:"incidentDate,omitempty"`
	IncidentTime        string       `json:"incidentTime,omitempty"`
	IncidentLocation    *Location    `json:"incidentLocation,omitempty"`
	IncidentDescription string       `json:"incidentDescription,omitempty"`
	Claimant            *Claimant    `json:"claimant,omitempty"`
	ThirdParties        []ThirdParty `json:"thirdParties,omitempty"`
	AssetType           AssetType    `json:"assetType,omitempty"`
	AssetID             string       `json:"assetId,omitempty"`
	EstimatedDamage     *float64     `json:"estimatedDamage,omitempty"`
	// EstimatedDamageRaw keeps a damage token that could not be read as a number.
	EstimatedDamageRaw  string       `json:"estimatedDamageRaw,omitempty"`
	ClaimType           ClaimType    `json:"claimType,omitempty"`
}

// ExtractionResult is what the extraction service returned for one document.
// Only Fields feeds the triage; the advisory parts are kept for audit.
type ExtractionResult struct {
	Fields               CandidateFields          `json:"extractedFields"`
	AdvisoryRouting      *RoutingDecision         `json:"routingDecision,omitempty"`
	AdvisoryMissing      []MissingFieldEntry      `json:"missingFields,omitempty"`
	AdvisoryInconsistent []InconsistentFieldEntry `json:"inconsistentFields,omitempty"`
}

type Validation struct {
	Missing      []MissingFieldEntry      `json:"missingFields"`
	Inconsistent []InconsistentFieldEntry `json:"inconsistentFields"`
}

func (v Validation) HasCriticalMissing() bool {
	for _, m := range v.Missing {
		if m.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

type Period struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

type DocumentInfo struct {
	Filename  string    `json:"filename"`
	MediaType MediaType `json:"mediaType"`
	SizeBytes int64     `json:"sizeBytes"`
	Pages     int       `json:"pages"`
}

type Claim struct {
	ID                  string                   `json:"id"`
	PolicyNumber        string                   `json:"policyNumber"`
	PolicyholderName    string                   `json:"policyholderName"`
	EffectiveDates      Period                   `json:"effectiveDates"`
	IncidentDate        *time.Time               `json:"incidentDate,omitempty"`
	IncidentTime        string                   `json:"incidentTime,omitempty"`
	IncidentLocation    Location                 `json:"incidentLocation"`
	IncidentDescription string                   `json:"incidentDescription"`
	Claimant            Claimant                 `json:"claimant"`
	ThirdParties        []ThirdParty             `json:"thirdParties"`
	AssetType           AssetType                `json:"assetType"`
	AssetID             string                   `json:"assetId,omitempty"`
	EstimatedDamage     float64                  `json:"estimatedDamage"`
	ClaimType           ClaimType                `json:"claimType"`
	RoutingDecision     RoutingDecision          `json:"routingDecision"`
	AdvisoryRouting     *RoutingDecision         `json:"advisoryRouting,omitempty"`
	ExtractedFields     CandidateFields          `json:"extractedFields"`
	MissingFields       []MissingFieldEntry      `json:"missingFields"`
	InconsistentFields  []InconsistentFieldEntry `json:"inconsistentFields"`
	Document            DocumentInfo             `json:"document"`
	Status              ClaimStatus              `json:"status"`
	SubmittedBy         string                   `json:"submittedBy,omitempty"`
	AssignedTo          string                   `json:"assignedTo,omitempty"`
	CreatedAt           time.Time                `json:"createdAt"`
	UpdatedAt           time.Time                `json:"updatedAt"`
}

type ClaimFilter struct {
	Status ClaimStatus
	Queue  Queue
	Search string
	Limit  int
}

// ClaimUpdate carries the externally driven mutations; nil means unchanged.
type ClaimUpdate struct {
	Status     *ClaimStatus `json:"status,omitempty"`
	AssignedTo *string      `json:"assignedTo,omitempty"`
}

func (u ClaimUpdate) IsEmpty() bool {
	return u.Status == nil && u.AssignedTo == nil
}

// ProcessingResult is returned to the caller of one pipeline run.
type ProcessingResult struct {
	ClaimID            string                   `json:"claimId"`
	ExtractedFields    CandidateFields          `json:"extractedFields"`
	MissingFields      []MissingFieldEntry      `json:"missingFields"`
	InconsistentFields []InconsistentFieldEntry `json:"inconsistentFields"`
	RoutingDecision    RoutingDecision          `json:"routingDecision"`
	AdvisoryRouting    *RoutingDecision         `json:"advisoryRouting,omitempty"`
}

// NormalizeEnumToken lowercases and hyphenates a free-form enum value.
func NormalizeEnumToken(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", "-", " ", "-").Replace(s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
