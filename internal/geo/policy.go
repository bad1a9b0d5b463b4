package geo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SyntheticRegion describes the region synthesized for orphan localities
// of a given country. TargetCountry is the country the region is created
// under, which differs from the source country for remapped territories.
type SyntheticRegion struct {
	Code          string `yaml:"code"`
	Name          string `yaml:"name"`
	TargetCountry string `yaml:"target_country"`
}

// Policy holds the editorial decisions of an import run: which continent
// each country belongs to, which disputed territories get merged into a
// neighbor, and which synthetic regions absorb orphan localities.
//
// A Policy is built once, validated, and never mutated afterwards.
type Policy struct {
	// ContinentByCountry maps a two-letter country code to a continent
	// code. Countries absent from the map stay on the "XX" sentinel.
	ContinentByCountry map[string]string `yaml:"continents"`

	// CountryRemap maps source country codes to the country they are
	// merged into after import. The source country row is deleted.
	CountryRemap map[string]string `yaml:"remap"`

	// SyntheticRegions maps a country code to the region synthesized
	// for its orphan localities. Countries absent from the map fall
	// back to a generated "<CC>-GEN" region named after the country.
	SyntheticRegions map[string]SyntheticRegion `yaml:"synthetic_regions"`
}

// ContinentFor returns the continent code for a country, or false when
// the country is not covered by the policy.
func (p *Policy) ContinentFor(countryCode string) (string, bool) {
	c, ok := p.ContinentByCountry[countryCode]
	return c, ok
}

// RemapTarget returns the country a disputed territory is merged into,
// or false when the territory is not remapped.
func (p *Policy) RemapTarget(countryCode string) (string, bool) {
	t, ok := p.CountryRemap[countryCode]
	return t, ok
}

// SyntheticRegionFor returns the synthetic region for a country's orphan
// localities. Countries without an explicit entry get a "<CC>-GEN" region
// named after the country itself.
func (p *Policy) SyntheticRegionFor(countryCode, countryName string) SyntheticRegion {
	if sr, ok := p.SyntheticRegions[countryCode]; ok {
		return sr
	}
	return SyntheticRegion{
		Code:          countryCode + "-GEN",
		Name:          countryName,
		TargetCountry: countryCode,
	}
}

// Validate checks the internal consistency of the policy.
func (p *Policy) Validate() error {
	for code, continent := range p.ContinentByCountry {
		if len(code) != 2 {
			return fmt.Errorf("policy: invalid country code %q", code)
		}
		if _, ok := continentNames[continent]; !ok {
			return fmt.Errorf("policy: country %s mapped to unknown continent %q", code, continent)
		}
	}
	for src, dst := range p.CountryRemap {
		if len(src) != 2 || len(dst) != 2 {
			return fmt.Errorf("policy: invalid remap pair %q -> %q", src, dst)
		}
		if src == dst {
			return fmt.Errorf("policy: remap %s targets itself", src)
		}
		if _, ok := p.CountryRemap[dst]; ok {
			return fmt.Errorf("policy: remap target %s is itself remapped", dst)
		}
	}
	for code, sr := range p.SyntheticRegions {
		if len(code) != 2 {
			return fmt.Errorf("policy: invalid country code %q in synthetic regions", code)
		}
		if sr.Code == "" || sr.Name == "" || len(sr.TargetCountry) != 2 {
			return fmt.Errorf("policy: incomplete synthetic region for %s", code)
		}
	}
	return nil
}

// LoadPolicyFile reads a YAML policy override file and merges it onto
// the default policy. Entries in the file replace the defaults key by
// key; keys absent from the file keep their default values.
func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var override Policy
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}

	p := DefaultPolicy()
	for code, continent := range override.ContinentByCountry {
		p.ContinentByCountry[code] = continent
	}
	for src, dst := range override.CountryRemap {
		p.CountryRemap[src] = dst
	}
	for code, sr := range override.SyntheticRegions {
		p.SyntheticRegions[code] = sr
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

var continentNames = map[string]string{
	"AF": "Africa",
	"AN": "Antarctica",
	"AS": "Asia",
	"EU": "Europe",
	"NA": "North America",
	"OC": "Oceania",
	"SA": "South America",
	"XX": "Unmapped",
}

// DefaultPolicy returns the built-in policy tables.
func DefaultPolicy() *Policy {
	return &Policy{
		ContinentByCountry: map[string]string{
			// Africa
			"DZ": "AF", "AO": "AF", "BJ": "AF", "BW": "AF", "BF": "AF", "BI": "AF", "CM": "AF", "CV": "AF",
			"CF": "AF", "TD": "AF", "KM": "AF", "CG": "AF", "CD": "AF", "CI": "AF", "DJ": "AF", "EG": "AF",
			"GQ": "AF", "ER": "AF", "SZ": "AF", "ET": "AF", "GA": "AF", "GM": "AF", "GH": "AF", "GN": "AF",
			"GW": "AF", "KE": "AF", "LS": "AF", "LR": "AF", "LY": "AF", "MG": "AF", "MW": "AF", "ML": "AF",
			"MR": "AF", "MU": "AF", "MA": "AF", "MZ": "AF", "NA": "AF", "NE": "AF", "NG": "AF", "RW": "AF",
			"ST": "AF", "SN": "AF", "SC": "AF", "SL": "AF", "SO": "AF", "ZA": "AF", "SS": "AF", "SD": "AF",
			"TZ": "AF", "TG": "AF", "TN": "AF", "UG": "AF", "ZM": "AF", "ZW": "AF", "EH": "AF", "RE": "AF",
			"YT": "AF", "SH": "AF",
			// Antarctica
			"AQ": "AN", "BV": "AN", "GS": "AN", "HM": "AN", "TF": "AN",
			// Asia
			"AF": "AS", "AM": "AS", "AZ": "AS", "BH": "AS", "BD": "AS", "BT": "AS", "BN": "AS", "KH": "AS",
			"CN": "AS", "CY": "AS", "GE": "AS", "HK": "AS", "IN": "AS", "ID": "AS", "IR": "AS", "IQ": "AS",
			"IL": "AS", "JP": "AS", "JO": "AS", "KZ": "AS", "KW": "AS", "KG": "AS", "LA": "AS", "LB": "AS",
			"MO": "AS", "MY": "AS", "MV": "AS", "MN": "AS", "MM": "AS", "NP": "AS", "KP": "AS", "OM": "AS",
			"PK": "AS", "PS": "AS", "PH": "AS", "QA": "AS", "SA": "AS", "SG": "AS", "KR": "AS", "LK": "AS",
			"SY": "AS", "TW": "AS", "TJ": "AS", "TH": "AS", "TL": "AS", "TR": "AS", "TM": "AS", "AE": "AS",
			"UZ": "AS", "VN": "AS", "YE": "AS", "IO": "AS", "CC": "AS", "CX": "AS",
			// Europe
			"AL": "EU", "AD": "EU", "AT": "EU", "BY": "EU", "BE": "EU", "BA": "EU", "BG": "EU", "HR": "EU",
			"CZ": "EU", "DK": "EU", "EE": "EU", "FI": "EU", "FR": "EU", "DE": "EU", "GR": "EU", "HU": "EU",
			"IS": "EU", "IE": "EU", "IT": "EU", "XK": "EU", "LV": "EU", "LI": "EU", "LT": "EU", "LU": "EU",
			"MT": "EU", "MD": "EU", "MC": "EU", "ME": "EU", "NL": "EU", "MK": "EU", "NO": "EU", "PL": "EU",
			"PT": "EU", "RO": "EU", "RU": "EU", "SM": "EU", "RS": "EU", "SK": "EU", "SI": "EU", "ES": "EU",
			"SE": "EU", "CH": "EU", "UA": "EU", "GB": "EU", "VA": "EU", "AX": "EU", "FO": "EU", "GI": "EU",
			"GG": "EU", "IM": "EU", "JE": "EU", "SJ": "EU",
			// North America
			"AG": "NA", "BS": "NA", "BB": "NA", "BZ": "NA", "CA": "NA", "CR": "NA", "CU": "NA", "DM": "NA",
			"DO": "NA", "SV": "NA", "GD": "NA", "GT": "NA", "HT": "NA", "HN": "NA", "JM": "NA", "MX": "NA",
			"NI": "NA", "PA": "NA", "KN": "NA", "LC": "NA", "VC": "NA", "TT": "NA", "US": "NA", "AI": "NA",
			"AW": "NA", "BM": "NA", "BQ": "NA", "VG": "NA", "KY": "NA", "CW": "NA", "GL": "NA", "GP": "NA",
			"MQ": "NA", "MS": "NA", "PR": "NA", "BL": "NA", "MF": "NA", "PM": "NA", "SX": "NA", "TC": "NA",
			"VI": "NA", "CP": "NA", "UM": "NA",
			// Oceania
			"AU": "OC", "FJ": "OC", "KI": "OC", "MH": "OC", "FM": "OC", "NR": "OC", "NZ": "OC", "PW": "OC",
			"PG": "OC", "WS": "OC", "SB": "OC", "TO": "OC", "TV": "OC", "VU": "OC", "AS": "OC", "CK": "OC",
			"PF": "OC", "GU": "OC", "NC": "OC", "NF": "OC", "MP": "OC", "NU": "OC", "PN": "OC", "TK": "OC",
			"WF": "OC",
			// South America
			"AR": "SA", "BO": "SA", "BR": "SA", "CL": "SA", "CO": "SA", "EC": "SA", "GY": "SA", "PY": "SA",
			"PE": "SA", "SR": "SA", "UY": "SA", "VE": "SA", "FK": "SA", "GF": "SA",
			// Disputed territories
			"XJ": "EU", "XS": "NA", "XE": "NA", "XT": "AF", "XY": "AF", "XM": "AS", "XN": "AS",
			"XH": "AS", "XW": "AS", "XZ": "AS", "XG": "AS", "XL": "AS", "XQ": "AS", "XC": "AS",
			"XX": "AS", "XO": "AS", "XI": "AS", "XU": "AS", "XA": "AS", "XB": "AS", "XD": "AS",
			"XP": "AS", "XR": "AS",
		},
		CountryRemap: map[string]string{
			"XW": "IL", // West Bank
			"XH": "IL", // Golan Heights
			"XZ": "IL", // East Jerusalem
		},
		SyntheticRegions: map[string]SyntheticRegion{
			// Israeli territories get their own region under Israel.
			"XH": {Code: "IL-GOLAN", Name: "Golan Heights", TargetCountry: "IL"},
			"XW": {Code: "IL-JUDEA-SAMARIA", Name: "Judea and Samaria", TargetCountry: "IL"},
			"XZ": {Code: "IL-JERUSALEM-DISTRICT", Name: "Jerusalem District", TargetCountry: "IL"},

			// Dutch Caribbean
			"AW": {Code: "DUTCH-CARIBBEAN", Name: "Dutch Caribbean Territory", TargetCountry: "AW"},
			"BQ": {Code: "DUTCH-CARIBBEAN", Name: "Dutch Caribbean Territory", TargetCountry: "BQ"},
			"CW": {Code: "DUTCH-CARIBBEAN", Name: "Dutch Caribbean Territory", TargetCountry: "CW"},
			"SX": {Code: "DUTCH-CARIBBEAN", Name: "Dutch Caribbean Territory", TargetCountry: "SX"},

			// French overseas
			"BL": {Code: "FRENCH-OVERSEAS", Name: "French Overseas Territory", TargetCountry: "BL"},
			"GP": {Code: "FRENCH-OVERSEAS", Name: "French Overseas Territory", TargetCountry: "GP"},
			"MF": {Code: "FRENCH-OVERSEAS", Name: "French Overseas Territory", TargetCountry: "MF"},
			"PF": {Code: "FRENCH-OVERSEAS", Name: "French Overseas Territory", TargetCountry: "PF"},
			"PM": {Code: "FRENCH-OVERSEAS", Name: "French Overseas Territory", TargetCountry: "PM"},
			"RE": {Code: "FRENCH-OVERSEAS", Name: "French Overseas Territory", TargetCountry: "RE"},

			// British overseas
			"AI": {Code: "BRITISH-OVERSEAS", Name: "British Overseas Territory", TargetCountry: "AI"},
			"FK": {Code: "BRITISH-OVERSEAS", Name: "British Overseas Territory", TargetCountry: "FK"},
			"GI": {Code: "BRITISH-OVERSEAS", Name: "British Overseas Territory", TargetCountry: "GI"},
			"IO": {Code: "BRITISH-OVERSEAS", Name: "British Overseas Territory", TargetCountry: "IO"},
			"NF": {Code: "BRITISH-OVERSEAS", Name: "British Overseas Territory", TargetCountry: "NF"},
			"PN": {Code: "BRITISH-OVERSEAS", Name: "British Overseas Territory", TargetCountry: "PN"},

			// Research stations
			"AQ": {Code: "RESEARCH", Name: "Research Stations", TargetCountry: "AQ"},
			"SJ": {Code: "RESEARCH", Name: "Research Stations", TargetCountry: "SJ"},
			"TF": {Code: "RESEARCH", Name: "Research Stations", TargetCountry: "TF"},

			// Pacific island territories
			"MO": {Code: "PACIFIC-TERRITORY", Name: "Pacific Island Territory", TargetCountry: "MO"},
			"NU": {Code: "PACIFIC-TERRITORY", Name: "Pacific Island Territory", TargetCountry: "NU"},
			"TK": {Code: "PACIFIC-TERRITORY", Name: "Pacific Island Territory", TargetCountry: "TK"},

			// Disputed
			"XE": {Code: "DISPUTED-OTHER", Name: "Disputed Territory", TargetCountry: "XE"},
			"XJ": {Code: "DISPUTED-OTHER", Name: "Disputed Territory", TargetCountry: "XJ"},
			"XS": {Code: "DISPUTED-OTHER", Name: "Disputed Territory", TargetCountry: "XS"},
			"XY": {Code: "DISPUTED-OTHER", Name: "Disputed Territory", TargetCountry: "XY"},

			"XC": {Code: "DISPUTED-CHINA", Name: "Chinese-Claimed Territory", TargetCountry: "XC"},
			"XL": {Code: "DISPUTED-CHINA", Name: "Chinese-Claimed Territory", TargetCountry: "XL"},
			"XQ": {Code: "DISPUTED-CHINA", Name: "Chinese-Claimed Territory", TargetCountry: "XQ"},
			"XX": {Code: "DISPUTED-CHINA", Name: "Chinese-Claimed Territory", TargetCountry: "XX"},

			"XI": {Code: "DISPUTED-RUSSIAN", Name: "Russian-Administered Islands", TargetCountry: "XI"},
			"XO": {Code: "DISPUTED-RUSSIAN", Name: "Russian-Administered Islands", TargetCountry: "XO"},

			"GL": {Code: "DANISH-OVERSEAS", Name: "Danish Realm Territory", TargetCountry: "GL"},
			"GU": {Code: "US-TERRITORY", Name: "US Territory", TargetCountry: "GU"},

			// City-states and island nations use the country name.
			"SG": {Code: "SG-GEN", Name: "Singapore", TargetCountry: "SG"},
			"VA": {Code: "VA-GEN", Name: "Vatican City", TargetCountry: "VA"},
			"SC": {Code: "SC-GEN", Name: "Seychelles", TargetCountry: "SC"},
			"ST": {Code: "ST-GEN", Name: "Sao Tome and Principe", TargetCountry: "ST"},
			"MU": {Code: "MU-GEN", Name: "Mauritius", TargetCountry: "MU"},
			"HM": {Code: "HM-GEN", Name: "Heard Island and McDonald Islands", TargetCountry: "HM"},

			"MM": {Code: "MM-GEN", Name: "Myanmar", TargetCountry: "MM"},
			"BZ": {Code: "BZ-GEN", Name: "Belize", TargetCountry: "BZ"},
			"FR": {Code: "FR-GEN", Name: "France", TargetCountry: "FR"},
			"TZ": {Code: "TZ-GEN", Name: "Tanzania", TargetCountry: "TZ"},
			"EC": {Code: "EC-GEN", Name: "Ecuador", TargetCountry: "EC"},
			"IE": {Code: "IE-GEN", Name: "Ireland", TargetCountry: "IE"},
			"IN": {Code: "IN-GEN", Name: "India", TargetCountry: "IN"},
			"CY": {Code: "CY-GEN", Name: "Cyprus", TargetCountry: "CY"},
			"MG": {Code: "MG-GEN", Name: "Madagascar", TargetCountry: "MG"},
			"MX": {Code: "MX-GEN", Name: "Mexico", TargetCountry: "MX"},
			"ES": {Code: "ES-GEN", Name: "Spain", TargetCountry: "ES"},
			"CO": {Code: "CO-GEN", Name: "Colombia", TargetCountry: "CO"},
			"OM": {Code: "OM-GEN", Name: "Oman", TargetCountry: "OM"},
			"IT": {Code: "IT-GEN", Name: "Italy", TargetCountry: "IT"},
			"LR": {Code: "LR-GEN", Name: "Liberia", TargetCountry: "LR"},
			"SA": {Code: "SA-GEN", Name: "Saudi Arabia", TargetCountry: "SA"},
			"PE": {Code: "PE-GEN", Name: "Peru", TargetCountry: "PE"},
			"JM": {Code: "JM-GEN", Name: "Jamaica", TargetCountry: "JM"},
			"XT": {Code: "XT-GEN", Name: "Bir Tawil", TargetCountry: "XT"},
			"TW": {Code: "TW-GEN", Name: "Taiwan", TargetCountry: "TW"},
			"TL": {Code: "TL-GEN", Name: "Timor-Leste", TargetCountry: "TL"},
			"MZ": {Code: "MZ-GEN", Name: "Mozambique", TargetCountry: "MZ"},
			"PY": {Code: "PY-GEN", Name: "Paraguay", TargetCountry: "PY"},
			"CP": {Code: "CP-GEN", Name: "Clipperton Island", TargetCountry: "CP"},
			"MA": {Code: "MA-GEN", Name: "Morocco", TargetCountry: "MA"},
			"BB": {Code: "BB-GEN", Name: "Barbados", TargetCountry: "BB"},
			"DO": {Code: "DO-GEN", Name: "Dominican Republic", TargetCountry: "DO"},
			"GY": {Code: "GY-GEN", Name: "Guyana", TargetCountry: "GY"},
			"MR": {Code: "MR-GEN", Name: "Mauritania", TargetCountry: "MR"},
			"SY": {Code: "SY-GEN", Name: "Syria", TargetCountry: "SY"},
			"LB": {Code: "LB-GEN", Name: "Lebanon", TargetCountry: "LB"},
			"EG": {Code: "EG-GEN", Name: "Egypt", TargetCountry: "EG"},
			"DZ": {Code: "DZ-GEN", Name: "Algeria", TargetCountry: "DZ"},
			"DK": {Code: "DK-GEN", Name: "Denmark", TargetCountry: "DK"},
			"MY": {Code: "MY-GEN", Name: "Malaysia", TargetCountry: "MY"},
			"ZA": {Code: "ZA-GEN", Name: "South Africa", TargetCountry: "ZA"},
		},
	}
}
