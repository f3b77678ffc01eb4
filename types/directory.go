package types

// DirectoryEntry is a cached projection of one customer in the external
// accounting platform. Entries are loaded once per batch run and stay
// read-only for the run's duration; staleness is bounded by run length.
type DirectoryEntry struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"display_name"`
	GivenName    string   `json:"given_name,omitempty"`
	FamilyName   string   `json:"family_name,omitempty"`
	Organization string   `json:"organization,omitempty"`
	AddressLine1 string   `json:"address_line1,omitempty"`
	City         string   `json:"city,omitempty"`
	State        string   `json:"state,omitempty"`
	ZIP          string   `json:"zip,omitempty"`
	Emails       []string `json:"emails,omitempty"`
	Phones       []string `json:"phones,omitempty"`
}
