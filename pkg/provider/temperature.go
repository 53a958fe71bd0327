package provider

import "strings"

// TemperaturePolicy reports whether an explicit temperature value may be
// sent to the given model at the given base URL. The engine consults the
// policy while building the request body; a false result drops the field
// up front instead of waiting for the backend to reject it.
type TemperaturePolicy func(baseURL, model string) bool

// Model families on the official OpenAI endpoint that only accept the
// default temperature. Matched as whole family prefixes so that e.g.
// "o1" does not capture an unrelated "o1x" model id.
var fixedTemperatureFamilies = []string{"gpt-5", "o1", "o3", "o4"}

// DefaultTemperaturePolicy denies explicit temperature for OpenAI's
// reasoning-era model families and allows it everywhere else. Third-party
// hosts routinely serve models under the same names but still accept the
// parameter, so the denial is scoped to the official host.
func DefaultTemperaturePolicy(baseURL, model string) bool {
	if !strings.Contains(baseURL, "api.openai.com") {
		return true
	}
	id := strings.ToLower(model)
	for _, family := range fixedTemperatureFamilies {
		if id == family || strings.HasPrefix(id, family+"-") || strings.HasPrefix(id, family+".") {
			return false
		}
	}
	return true
}
