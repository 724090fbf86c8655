package records

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrgans(t *testing.T) {
	tests := []struct {
		name     string
		raw      interface{}
		expected OrganSet
	}{
		{"nil", nil, OrganSet{}},
		{"string list", []string{"Liver", "kidney", "kidneys"}, OrganSet{"kidney", "liver"}},
		{"interface list", []interface{}{"heart", nil, "lung"}, OrganSet{"heart", "lungs"}},
		{"comma string", " kidney, ,cornea ", OrganSet{"cornea", "kidney"}},
		{"mapping of labels", map[string]interface{}{"a": "Kidney", "b": ""}, OrganSet{"kidney"}},
		{"mapping of flags", map[string]interface{}{"kidney": true, "liver": false, "skin": nil}, OrganSet{"kidney"}},
		{"json list", []byte(`["kidney","liver"]`), OrganSet{"kidney", "liver"}},
		{"json mapping", []byte(`{"heart": true}`), OrganSet{"heart"}},
		{"plain bytes", []byte("bone,skin"), OrganSet{"bone", "skin"}},
		{"json list string", `["kidney","liver"]`, OrganSet{"kidney", "liver"}},
		{"json string wrapping a list", []byte(`"[\"kidney\",\"liver\"]"`), OrganSet{"kidney", "liver"}},
		{"json mapping string", ` {"lung": true} `, OrganSet{"lungs"}},
		{"malformed list string", `["kidney", 'heart'`, OrganSet{"heart", "kidney"}},
		{"invalid utf-8 bytes", []byte{0xff, 0xfe}, OrganSet{}},
		{"invalid utf-8 string", string([]byte{0xff, 0xfe}), OrganSet{}},
		{"unsupported", 42, OrganSet{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseOrgans(tt.raw))
		})
	}
}

func TestOrganSet_Intersect(t *testing.T) {
	donor := NewOrganSet("kidney", "liver")
	assert.Equal(t, OrganSet{"kidney"}, donor.Intersect(NewOrganSet("kidney")))
	assert.Empty(t, NewOrganSet("cornea").Intersect(NewOrganSet("kidney")))
	assert.Empty(t, OrganSet(nil).Intersect(donor))
}

func TestOrganSet_UnmarshalJSON(t *testing.T) {
	var r RecipientRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id": 3, "organs_needed": "Kidney, lung"}`), &r))
	assert.Equal(t, int64(3), r.ID)
	assert.Equal(t, OrganSet{"kidney", "lungs"}, r.Organs)
}

func TestNewDonor_Normalizes(t *testing.T) {
	d := NewDonor(DonorRecord{
		Person: Person{ID: 1, City: " seattle ", BloodType: "o neg", Age: -3},
		Organs: OrganSet{"Kidneys", "liver"},
		Health: "Excellent",
	})

	assert.Equal(t, "Seattle", d.City)
	assert.Equal(t, BloodType("O-"), d.BloodType)
	assert.Equal(t, 0, d.Age)
	assert.Equal(t, OrganSet{"kidney", "liver"}, d.Organs)
	assert.Equal(t, HealthExcellent, d.Health)
}

func TestParseLevels(t *testing.T) {
	assert.Equal(t, UrgencyCritical, ParseUrgencyLevel(" CRITICAL "))
	assert.Equal(t, UrgencyLevel(""), ParseUrgencyLevel("asap"))
	assert.Equal(t, HealthPoor, ParseHealthStatus("poor"))
	assert.Equal(t, HealthStatus(""), ParseHealthStatus(""))
}

func TestFields(t *testing.T) {
	donor := NewDonor(DonorRecord{
		Person:   Person{City: "Seattle", Gender: "Boy", Race: "White", Age: 28, BloodType: "O-"},
		Health:   HealthGood,
		Smokes:   true,
		AvgSleep: 6,
	})
	assert.Equal(t,
		[]string{"Seattle", "Boy", "White", "28", "O Neg", "good", "STrue", "DFalse", "AFalse", "6"},
		Fields(donor))

	recipient := NewRecipient(RecipientRecord{Urgency: "high"})
	assert.Equal(t, []string{"", "", "", "", "", "high"}, Fields(recipient))
}
