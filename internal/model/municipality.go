package model

// The authorities an issue can be routed to.
const (
	MunicipalityRanchi     = "Ranchi Municipal Corporation"
	MunicipalityDhanbad    = "Dhanbad Municipal Corporation"
	MunicipalityJamshedpur = "Jamshedpur Notified Area Committee"
	MunicipalityBokaro     = "Bokaro Steel City Municipal Corporation"
	MunicipalityDeoghar    = "Deoghar Municipal Corporation"
	MunicipalityHazaribagh = "Hazaribagh Municipal Corporation"
)

// Municipalities lists every known authority in display order.
var Municipalities = []string{
	MunicipalityRanchi,
	MunicipalityDhanbad,
	MunicipalityJamshedpur,
	MunicipalityBokaro,
	MunicipalityDeoghar,
	MunicipalityHazaribagh,
}

// IsMunicipality reports whether name is one of Municipalities.
func IsMunicipality(name string) bool {
	for _, m := range Municipalities {
		if m == name {
			return true
		}
	}
	return false
}
