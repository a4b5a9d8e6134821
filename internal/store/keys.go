package store

import "strings"

// Keys of the values kept in the store
const (
	KeyAnalysisResults        = "analysisResults"
	KeyDatasets               = "datasets"
	KeyOutputFormat           = "outputFormat"
	KeyAgriParams             = "agriParams"
	KeySeriesResults          = "seriesResults"
	KeyAgriReport             = "agriReportJSON"
	KeyNightLightsReport      = "nightLightsReport"
	KeyNaturalResourcesResult = "naturalResourcesResult"

	// ResourceHistoryPrefix prefixes the per-location forest-cover history
	ResourceHistoryPrefix = "nr_hist_"
)

// ResourceHistoryKey returns the history key for a location
func ResourceHistoryKey(location string) string {
	return ResourceHistoryPrefix + strings.TrimSpace(location)
}

// Scope names a set of keys cleared together
type Scope string

const (
	// ScopeResults holds cached analysis output
	ScopeResults Scope = "results"
	// ScopeReports holds generated reports
	ScopeReports Scope = "reports"
	// ScopeExploration is cleared when a user starts a new exploration
	ScopeExploration Scope = "exploration"
	// ScopeSession is cleared on logout
	ScopeSession Scope = "session"
)

var scopeKeys = map[Scope][]string{
	ScopeResults: {KeyAnalysisResults, KeySeriesResults},
	ScopeReports: {KeyAgriReport, KeyNightLightsReport},
}

func init() {
	exploration := append([]string{}, scopeKeys[ScopeResults]...)
	exploration = append(exploration, scopeKeys[ScopeReports]...)
	exploration = append(exploration, KeyDatasets, KeyOutputFormat, KeyAgriParams, KeyNaturalResourcesResult)
	scopeKeys[ScopeExploration] = exploration
	scopeKeys[ScopeSession] = exploration
}

// ParseScope validates a scope name
func ParseScope(name string) (Scope, bool) {
	s := Scope(strings.ToLower(strings.TrimSpace(name)))
	_, ok := scopeKeys[s]
	return s, ok
}

// Keys returns the fixed keys in the scope
func (s Scope) Keys() []string {
	return append([]string(nil), scopeKeys[s]...)
}

// includesHistory reports whether the scope also drops every nr_hist_* key
func (s Scope) includesHistory() bool {
	return s == ScopeSession
}
