package advisory

// Rule identifies which advisory branch matched. Evaluation order is
// rain, heat, cold, wind, pleasant; the first match wins.
type Rule int

const (
	RuleRain Rule = iota
	RuleHeat
	RuleCold
	RuleWind
	RulePleasant
)

// Thresholds. All comparisons are strict, so a value equal to its threshold falls through.
const (
	RainProbabilityThreshold = 70   // percent
	HeatThreshold            = 35.0 // °C
	ColdThreshold            = 10.0 // °C
	WindThreshold            = 30.0 // km/h
)

// String returns a stable label for the rule, used in metrics and logs.
func (r Rule) String() string {
	switch r {
	case RuleRain:
		return "rain"
	case RuleHeat:
		return "heat"
	case RuleCold:
		return "cold"
	case RuleWind:
		return "wind"
	case RulePleasant:
		return "pleasant"
	default:
		return "unknown"
	}
}

const (
	day   = 0
	night = 1
)

var texts = [...][2]string{
	RuleRain: {
		"🌧 High chance of rain. Carry an umbrella!",
		"🌧 High chance of rain. Carry an umbrella!",
	},
	RuleHeat: {
		"🥵 Very hot outside. Stay hydrated and avoid going out during peak hours (11 AM - 4 PM).",
		"🌙 Still quite hot even at night. Stay hydrated and consider light, breathable clothing.",
	},
	RuleCold: {
		"🧣 It's quite cold. Wear warm clothes and enjoy some sunshine if possible.",
		"🌙❄ Very cold night. Wear extra layers and stay warm indoors.",
	},
	RuleWind: {
		"💨 Strong winds during the day. Be cautious outdoors and secure loose items.",
		"🌙💨 Strong winds at night. Stay indoors and ensure windows are secure.",
	},
	RulePleasant: {
		"🌤 Weather looks pleasant. Great time for outdoor activities!",
		"🌙✨ Pleasant evening/night. Perfect for a peaceful walk or outdoor relaxation.",
	},
}

// Classify returns the first rule matching the conditions. A nil precip never
// triggers the rain rule.
func Classify(temperature, windSpeed float64, precip *int) Rule {
	switch {
	case precip != nil && *precip > RainProbabilityThreshold:
		return RuleRain
	case temperature > HeatThreshold:
		return RuleHeat
	case temperature < ColdThreshold:
		return RuleCold
	case windSpeed > WindThreshold:
		return RuleWind
	default:
		return RulePleasant
	}
}

// Text returns the canned advisory for rule and time of day.
func Text(rule Rule, isDaytime bool) string {
	if rule < RuleRain || rule > RulePleasant {
		rule = RulePleasant
	}
	if isDaytime {
		return texts[rule][day]
	}
	return texts[rule][night]
}

// Suggest maps current conditions to one of the fixed advisory strings.
func Suggest(temperature, windSpeed float64, precip *int, isDaytime bool) string {
	return Text(Classify(temperature, windSpeed, precip), isDaytime)
}
