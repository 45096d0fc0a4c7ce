package torn

// scopes maps an API selection to the access it needs, so a denial can
// name what the key is missing instead of echoing an error code.
var scopes = map[string]string{
	"armorynews": "faction armoury news access",
	"fundsnews":  "faction funds news access",
	"basic":      "faction basic data access",
	"items":      "Torn item catalog access",
}

// ScopeFor returns a human-readable description of the access a selection
// requires.
func ScopeFor(selection string) string {
	if s, ok := scopes[selection]; ok {
		return s
	}
	return "faction API access"
}
