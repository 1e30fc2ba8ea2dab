package models

import "time"

// MonthlyRevenue is one row of the per-month revenue aggregate.
type MonthlyRevenue struct {
	Month   int     `db:"month" json:"month"`
	Revenue float64 `db:"revenue" json:"revenue"`
	Lessons int     `db:"lessons" json:"lessons"`
}

// QuarterRevenue aggregates booked lesson revenue for one quarter.
type QuarterRevenue struct {
	Quarter string  `json:"quarter"`
	Revenue float64 `json:"revenue"`
	Lessons int     `json:"lessons"`
}

// RevenueByQuarterReport is the revenue-by-quarter result.
type RevenueByQuarterReport struct {
	Year     *int             `json:"year,omitempty"`
	Quarters []QuarterRevenue `json:"quarters"`
	Total    float64          `json:"total"`
}

// InstrumentPopularity counts booked lessons and revenue per instrument.
type InstrumentPopularity struct {
	Instrument string  `db:"instrument" json:"instrument"`
	Lessons    int     `db:"lessons" json:"lessons"`
	Revenue    float64 `db:"revenue" json:"revenue"`
}

// OutreachBreakdown counts accounts per outreach source and role.
type OutreachBreakdown struct {
	Source string   `db:"outreach_source" json:"outreach_source"`
	Role   UserRole `db:"role" json:"role"`
	Count  int      `db:"count" json:"count"`
}

// RoleCount counts accounts for one role.
type RoleCount struct {
	Role  UserRole `db:"role" json:"role"`
	Count int      `db:"count" json:"count"`
}

// StudentLessonCount is the number of lessons a student has booked.
type StudentLessonCount struct {
	StudentID string `db:"student_id" json:"student_id"`
	Lessons   int    `db:"lessons" json:"lessons"`
}

// SecondLessonReport is the second-lesson conversion summary.
type SecondLessonReport struct {
	StudentsWithLesson       int     `json:"students_with_lesson"`
	StudentsWithSecondLesson int     `json:"students_with_second_lesson"`
	Percentage               float64 `json:"percentage"`
}

// AnalyticsSystemMetrics represents system level analytics captured from instrumentation.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
