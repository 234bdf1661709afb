// Package domain models free-text weather forecast rows and the semantic
// weather features scored from them.
//
// # Data Source
//
// Forecast rows originate from upstream scrapers that pull daily forecast
// pages (national met service bulletins and community forecast boards),
// cut out the "today" paragraph, and publish one flat JSON object per
// forecast to the Kafka source topic:
//
//	{"date": "2020-01-05", "source": "met", "forecast": "Today will be cold and wet ..."}
//
// The date is passed through untouched; normalizing its format is the
// scraper's job. A row is malformed when a key is absent, never when a value
// is empty: an empty forecast is still scored and emitted.
//
// # Grammatical Roles
//
// Tokens carry a Penn Treebank tag from the tagger. Only the first letter is
// significant for scoring:
//
//	N* -> noun   V* -> verb   J* -> adjective   R* -> adverb   anything else -> other
//
// Tokens with role "other" are never scored under the role-scoped policy.
//
// # Scores
//
// Each configured weather dimension (COLD, HOT, WET, DRY, CLOUDY, WINDY by
// default) contributes one score column, in configuration order. A score is
// either a number formatted with two decimals ("2.00") or null, written as an
// empty string. Null only occurs under the role-scoped policy when the text
// has no noun, verb, adjective or adverb, or when tagging failed.
//
// # ID Generation
//
// Row IDs are name-based UUIDs (version 5) of date|source|forecast, so a
// replayed row keeps its ID and downstream upserts stay idempotent. See
// [generateID].
package domain
