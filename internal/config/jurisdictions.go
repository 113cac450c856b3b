package config

import (
	"fmt"
	"os"

	"civic_reporter/internal/model"

	"gopkg.in/yaml.v3"
)

// Jurisdiction is the bounding box an authority is responsible for.
type Jurisdiction struct {
	Municipality string  `yaml:"municipality"`
	MinLat       float64 `yaml:"min_lat"`
	MaxLat       float64 `yaml:"max_lat"`
	MinLon       float64 `yaml:"min_lon"`
	MaxLon       float64 `yaml:"max_lon"`
}

type jurisdictionsFile struct {
	Jurisdictions []Jurisdiction `yaml:"jurisdictions"`
}

// DefaultJurisdictions approximates the city limits of each municipality.
var DefaultJurisdictions = []Jurisdiction{
	{Municipality: model.MunicipalityRanchi, MinLat: 23.25, MaxLat: 23.45, MinLon: 85.20, MaxLon: 85.45},
	{Municipality: model.MunicipalityDhanbad, MinLat: 23.70, MaxLat: 23.87, MinLon: 86.35, MaxLon: 86.50},
	{Municipality: model.MunicipalityJamshedpur, MinLat: 22.72, MaxLat: 22.87, MinLon: 86.10, MaxLon: 86.28},
	{Municipality: model.MunicipalityBokaro, MinLat: 23.60, MaxLat: 23.72, MinLon: 86.05, MaxLon: 86.20},
	{Municipality: model.MunicipalityDeoghar, MinLat: 24.44, MaxLat: 24.53, MinLon: 86.65, MaxLon: 86.75},
	{Municipality: model.MunicipalityHazaribagh, MinLat: 23.95, MaxLat: 24.03, MinLon: 85.32, MaxLon: 85.40},
}

// LoadJurisdictions reads jurisdiction boxes from a YAML file. An empty path
// returns DefaultJurisdictions.
func LoadJurisdictions(path string) ([]Jurisdiction, error) {
	if path == "" {
		return DefaultJurisdictions, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jurisdictions: %w", err)
	}
	var f jurisdictionsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(f.Jurisdictions) == 0 {
		return nil, fmt.Errorf("jurisdictions file %s defines no jurisdictions", path)
	}
	for _, j := range f.Jurisdictions {
		if !model.IsMunicipality(j.Municipality) {
			return nil, fmt.Errorf("unknown municipality %q", j.Municipality)
		}
		if j.MinLat >= j.MaxLat || j.MinLon >= j.MaxLon {
			return nil, fmt.Errorf("empty bounding box for %q", j.Municipality)
		}
	}
	return f.Jurisdictions, nil
}
