package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------------------
// States
// ---------------------------------------------------------------------------

func TestResolver_StateCodeFor(t *testing.T) {
	r := New()

	tests := []struct {
		in   string
		want string
	}{
		{"California", "CA"},
		{"  new   york ", "NY"},
		{"DISTRICT OF COLUMBIA", "DC"},
		{"Québec", "QC"},
		{"QUEBEC", "QC"},
		{"New South Wales", "NSW"},
		{"tx", "TX"},
		{"qld", "QLD"},
		{"Bavaria", "Bavaria"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, r.StateCodeFor(tt.in))
		})
	}
}

// ---------------------------------------------------------------------------
// Countries
// ---------------------------------------------------------------------------

func TestResolver_CountryCodeFor(t *testing.T) {
	r := New()

	tests := []struct {
		in   string
		want string
	}{
		{"US", "_unitedStates"},
		{"us", "_unitedStates"},
		{"GB", "_unitedKingdom"},
		{"AG", "_antiguaAndBarbuda"},
		{"BL", "_saintBarthelemy"},
		{"GW", "_guineaBissau"},
		{"LA", "_laoPeoplesDemocraticRepublic"},
		{"KR", "_koreaRepublicOf"},
		{"CI", "_coteDIvoire"},
		{"Canada", "_canada"},
		{"curaçao", "_curacao"},
		{"ZZ", "ZZ"},
		{" ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, r.CountryCodeFor(tt.in))
		})
	}
}

func TestEnumNamesAreUnique(t *testing.T) {
	r := New()
	seen := make(map[string]string, len(r.countries))
	for iso, value := range r.countries {
		if other, dup := seen[value]; dup {
			t.Errorf("%s and %s both map to %s", iso, other, value)
		}
		seen[value] = iso
		assert.Regexp(t, `^_[a-z][A-Za-z0-9]*$`, value, iso)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ile de france", normalize("  Île   de FRANCE"))
	assert.Equal(t, "sao tome and principe", normalize("São Tomé and Príncipe"))
}
