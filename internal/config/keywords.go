package config

// DefaultPeopleKeywords returns the title keywords that flag a post as
// showing people. Matching is case-insensitive substring search.
func DefaultPeopleKeywords() []string {
	return []string{"person"}
}

// DefaultJewelryKeywords returns the title keywords that flag a post as
// showing jewelry.
func DefaultJewelryKeywords() []string {
	return []string{"jewelry"}
}
