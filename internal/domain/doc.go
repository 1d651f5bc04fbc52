// Package domain models Formula 1 race-session data and its flattening into
// one result row per (race, driver).
//
// # Data Source
//
// Race sessions originate from a motorsport statistics provider. An upstream
// collector publishes one JSON document per championship race session to the
// Kafka source topic: event identity (official name, location, country, format,
// date), the per-driver classification, and the raw weather samples recorded
// during the session.
//
// # Provider Conventions
//
// Event identity:
//
//	OfficialEventName is the sponsor-qualified name, e.g.
//	"FORMULA 1 GULF AIR BAHRAIN GRAND PRIX 2024". It is the race key for all
//	downstream grouping ("Race Name" column).
//	Location and Country are joined as "<location>,<country>", e.g. "Sakhir,Bahrain".
//	EventDate is the calendar date of the race weekend (YYYY-MM-DD); the session
//	start is a separate UTC timestamp.
//
// Classification:
//
//	Position and GridPosition arrive as floats (1.0, 2.0, ...). Position is null
//	for drivers the provider did not classify.
//	DriverNumber is the car number as a string ("1", "44"); DriverID is the
//	provider's stable driver key ("max_verstappen") and becomes "Driver Name".
//	Time is seconds: race time for the winner, gap to the winner for everyone
//	else, null when the driver did not finish.
//
// Weather samples:
//
//	Roughly one sample per minute. Temperatures in °C, humidity in %,
//	pressure in mbar, wind speed in m/s, rainfall as a boolean flag.
//
// # Flattening Rules
//
//   - Testing sessions are skipped ([ErrTestSession]).
//   - Sessions with no classification yet (future or incomplete events) are
//     skipped ([ErrNoResults]).
//   - Each numeric weather field is averaged over the session's samples, and
//     rainfall is true if any sample reported rain. The session-level values are
//     replicated onto every driver row, so weather is race-invariant.
//
// # ID Generation
//
// Record IDs are deterministic SHA-256 hashes of race name|driver number, so a
// replayed session produces the same IDs and sinks can upsert idempotently.
package domain
