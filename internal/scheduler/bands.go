package scheduler

import "threatmap/internal/model"

// DefaultBands is the built-in follow-the-sun catalog. Offsets include the
// half-hour zones; countries are the ones whose local noon falls near the
// band's offset.
func DefaultBands() []model.TimezoneBand {
	return []model.TimezoneBand{
		{UTCOffset: -10, DisplayName: "Pacific", Countries: []string{
			"United States", "French Polynesia",
		}},
		{UTCOffset: -8, DisplayName: "North America West", Countries: []string{
			"United States", "Canada", "Mexico",
		}},
		{UTCOffset: -6, DisplayName: "Central America", Countries: []string{
			"Mexico", "Guatemala", "Honduras", "Costa Rica",
		}},
		{UTCOffset: -5, DisplayName: "North America East & Andes", Countries: []string{
			"United States", "Canada", "Colombia", "Peru", "Ecuador",
		}},
		{UTCOffset: -4, DisplayName: "Caribbean & Venezuela", Countries: []string{
			"Venezuela", "Bolivia", "Chile", "Dominican Republic",
		}},
		{UTCOffset: -3, DisplayName: "Brazil & South Atlantic", Countries: []string{
			"Brazil", "Argentina", "Uruguay",
		}},
		{UTCOffset: 0, DisplayName: "Western Europe & West Africa", Countries: []string{
			"United Kingdom", "Ireland", "Portugal", "Morocco", "Ghana", "Senegal",
		}},
		{UTCOffset: 1, DisplayName: "Central Europe & Sahel", Countries: []string{
			"France", "Germany", "Spain", "Italy", "Poland", "Nigeria", "Algeria",
		}},
		{UTCOffset: 2, DisplayName: "Eastern Europe & Africa", Countries: []string{
			"Ukraine", "Finland", "Romania", "Greece", "Egypt", "Israel", "South Africa",
		}},
		{UTCOffset: 3, DisplayName: "Middle East & East Africa", Countries: []string{
			"Russia", "Turkey", "Saudi Arabia", "Iraq", "Kenya", "Ethiopia",
		}},
		{UTCOffset: 3.5, DisplayName: "Iran", Countries: []string{
			"Iran",
		}},
		{UTCOffset: 4, DisplayName: "Gulf & Caucasus", Countries: []string{
			"United Arab Emirates", "Azerbaijan", "Georgia", "Armenia", "Oman",
		}},
		{UTCOffset: 5, DisplayName: "Central Asia", Countries: []string{
			"Pakistan", "Kazakhstan", "Uzbekistan", "Turkmenistan",
		}},
		{UTCOffset: 5.5, DisplayName: "India & South Asia", Countries: []string{
			"India", "Sri Lanka",
		}},
		{UTCOffset: 6.5, DisplayName: "Myanmar & Bay of Bengal", Countries: []string{
			"Myanmar", "Bangladesh",
		}},
		{UTCOffset: 7, DisplayName: "Southeast Asia", Countries: []string{
			"Thailand", "Vietnam", "Indonesia", "Cambodia",
		}},
		{UTCOffset: 8, DisplayName: "East Asia", Countries: []string{
			"China", "Philippines", "Malaysia", "Singapore", "Taiwan",
		}},
		{UTCOffset: 9, DisplayName: "Japan & Koreas", Countries: []string{
			"Japan", "South Korea", "North Korea",
		}},
		{UTCOffset: 10, DisplayName: "Australia & Melanesia", Countries: []string{
			"Australia", "Papua New Guinea",
		}},
		{UTCOffset: 12, DisplayName: "New Zealand & Pacific Islands", Countries: []string{
			"New Zealand", "Fiji",
		}},
	}
}
