package db

const (
	// timestampLayout is how timestamps are written so SQLite date
	// functions and plain string comparison both work on them.
	timestampLayout = "2006-01-02 15:04:05"

	// defaultRecentLimit caps RecentFetches when no limit is given.
	defaultRecentLimit = 50
)
