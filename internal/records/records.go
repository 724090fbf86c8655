// Package records defines the donor and recipient records consumed by the
// matching engine. Values are normalized when a record is built so that the
// matching code never deals with raw profile payloads.
package records

import (
	"strconv"
	"strings"

	"github.com/TFMV/OrganMatchPro/internal/standardizer"
)

// BloodType is a canonical ABO/Rh blood type such as "O-" or "AB+".
type BloodType string

// ParseBloodType canonicalizes s; unknown spellings yield the empty type.
func ParseBloodType(s string) BloodType {
	return BloodType(standardizer.BloodType(s))
}

// Group returns the ABO group ("O", "A", "B", "AB").
func (b BloodType) Group() string {
	return strings.TrimRight(string(b), "+-")
}

// Rh returns "Pos" or "Neg", the spelling used by the training dataset.
func (b BloodType) Rh() string {
	switch {
	case strings.HasSuffix(string(b), "+"):
		return "Pos"
	case strings.HasSuffix(string(b), "-"):
		return "Neg"
	}
	return ""
}

// HealthStatus is the donor's self-reported health, best to worst.
type HealthStatus string

const (
	HealthExcellent HealthStatus = "excellent"
	HealthGood      HealthStatus = "good"
	HealthFair      HealthStatus = "fair"
	HealthPoor      HealthStatus = "poor"
)

// ParseHealthStatus returns the canonical status or "" for unknown values.
func ParseHealthStatus(s string) HealthStatus {
	switch h := HealthStatus(standardizer.Text(s)); h {
	case HealthExcellent, HealthGood, HealthFair, HealthPoor:
		return h
	}
	return ""
}

// UrgencyLevel is the recipient's urgency, lowest to highest.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// ParseUrgencyLevel returns the canonical level or "" for unknown values.
func ParseUrgencyLevel(s string) UrgencyLevel {
	switch u := UrgencyLevel(standardizer.Text(s)); u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return u
	}
	return ""
}

// Person holds the attributes shared by donors and recipients.
type Person struct {
	ID        int64     `json:"id"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Gender    string    `json:"gender,omitempty"`
	Race      string    `json:"race,omitempty"`
	Age       int       `json:"age,omitempty"`
	BloodType BloodType `json:"blood_type"`
}

// Normalize canonicalizes the categorical fields in place.
func (p *Person) Normalize() {
	p.City = standardizer.City(p.City)
	p.State = standardizer.City(p.State)
	p.Gender = strings.TrimSpace(p.Gender)
	p.Race = strings.TrimSpace(p.Race)
	p.BloodType = ParseBloodType(string(p.BloodType))
	if p.Age < 0 {
		p.Age = 0
	}
}

func (p Person) demographicFields() []string {
	age := ""
	if p.Age > 0 {
		age = strconv.Itoa(p.Age)
	}
	blood := ""
	if p.BloodType != "" {
		blood = p.BloodType.Group() + " " + p.BloodType.Rh()
	}
	return []string{p.City, p.Gender, p.Race, age, blood}
}

// Record is the capability set the engine needs from either party.
type Record interface {
	Profile() Person
	OrganTags() OrganSet
	// RoleFields returns the role-specific categorical fields in encoding order.
	RoleFields() []string
}

// DonorRecord is a donor profile as seen by the engine.
type DonorRecord struct {
	Person
	Organs        OrganSet     `json:"organs_offered"`
	Health        HealthStatus `json:"health_status"`
	Smokes        bool         `json:"smokes"`
	DrinksAlcohol bool         `json:"drinks_alcohol"`
	UsesDrugs     bool         `json:"uses_drugs"`
	AvgSleep      float64      `json:"avg_sleep,omitempty"`
	Available     bool         `json:"available"`
}

// NewDonor builds a normalized donor record.
func NewDonor(d DonorRecord) DonorRecord {
	d.Person.Normalize()
	d.Organs = NewOrganSet(d.Organs...)
	d.Health = ParseHealthStatus(string(d.Health))
	if d.AvgSleep < 0 {
		d.AvgSleep = 0
	}
	return d
}

func (d DonorRecord) Profile() Person     { return d.Person }
func (d DonorRecord) OrganTags() OrganSet { return d.Organs }

// RoleFields encodes lifestyle flags with the dataset's prefixed booleans
// ("STrue", "DFalse", "AFalse").
func (d DonorRecord) RoleFields() []string {
	sleep := ""
	if d.AvgSleep > 0 {
		sleep = strconv.FormatFloat(d.AvgSleep, 'f', -1, 64)
	}
	return []string{
		string(d.Health),
		flag("S", d.Smokes),
		flag("D", d.UsesDrugs),
		flag("A", d.DrinksAlcohol),
		sleep,
	}
}

// RecipientRecord is a recipient profile as seen by the engine.
type RecipientRecord struct {
	Person
	Organs  OrganSet     `json:"organs_needed"`
	Urgency UrgencyLevel `json:"urgency_level"`
}

// NewRecipient builds a normalized recipient record.
func NewRecipient(r RecipientRecord) RecipientRecord {
	r.Person.Normalize()
	r.Organs = NewOrganSet(r.Organs...)
	r.Urgency = ParseUrgencyLevel(string(r.Urgency))
	return r
}

func (r RecipientRecord) Profile() Person     { return r.Person }
func (r RecipientRecord) OrganTags() OrganSet { return r.Organs }
func (r RecipientRecord) RoleFields() []string {
	return []string{string(r.Urgency)}
}

// Fields returns the full ordered categorical field list of rec.
func Fields(rec Record) []string {
	return append(rec.Profile().demographicFields(), rec.RoleFields()...)
}

func flag(prefix string, v bool) string {
	if v {
		return prefix + "True"
	}
	return prefix + "False"
}
