package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/thethakurshivam/grs-sub003/pkg/config"
	"github.com/thethakurshivam/grs-sub003/pkg/database"
	"github.com/thethakurshivam/grs-sub003/pkg/logger"
)

type balanceRow struct {
	StudentID   string  `db:"student_id"`
	UmbrellaKey string  `db:"umbrella_key"`
	Credits     float64 `db:"credits"`
}

type totalRow struct {
	StudentID    string  `db:"id"`
	TotalCredits float64 `db:"total_credits"`
}

func main() {
	var (
		studentID string
		tolerance float64
		timeout   time.Duration
	)
	flag.StringVar(&studentID, "student", "", "Only audit this student")
	flag.Float64Var(&tolerance, "tolerance", 1e-6, "Allowed absolute difference between ledger figures")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Overall audit timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(2)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(2)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	snap, err := loadSnapshot(ctx, db, studentID)
	if err != nil {
		logr.Fatal("failed to load ledger", zap.Error(err))
	}

	findings := audit(snap, tolerance)
	printReport(findings)
	logr.Info("ledger audit finished",
		zap.Int("students", len(snap.totals)),
		zap.Int("balances", len(snap.balances)),
		zap.Int("findings", len(findings)))
	if len(findings) > 0 {
		os.Exit(1)
	}
}

func loadSnapshot(ctx context.Context, db *sqlx.DB, studentID string) (snapshot, error) {
	var (
		balances []balanceRow
		history  []balanceRow
		totals   []totalRow
	)
	filter, args := "", []interface{}{}
	if studentID != "" {
		filter, args = " WHERE student_id = $1", []interface{}{studentID}
	}

	if err := db.SelectContext(ctx, &balances,
		`SELECT student_id, umbrella_key, credits FROM student_credit_balances`+filter, args...); err != nil {
		return snapshot{}, fmt.Errorf("load balances: %w", err)
	}

	historyFilter := " WHERE NOT certificate_contributed"
	if studentID != "" {
		historyFilter += " AND student_id = $1"
	}
	if err := db.SelectContext(ctx, &history,
		`SELECT student_id, umbrella_key, COALESCE(SUM(credits_earned), 0) AS credits FROM course_history`+
			historyFilter+` GROUP BY student_id, umbrella_key`, args...); err != nil {
		return snapshot{}, fmt.Errorf("load course history: %w", err)
	}

	totalFilter := ""
	if studentID != "" {
		totalFilter = " WHERE id = $1"
	}
	if err := db.SelectContext(ctx, &totals, `SELECT id, total_credits FROM students`+totalFilter, args...); err != nil {
		return snapshot{}, fmt.Errorf("load students: %w", err)
	}

	return newSnapshot(balances, history, totals), nil
}

func printReport(findings []finding) {
	if len(findings) == 0 {
		fmt.Println("Ledger is consistent")
		return
	}
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].StudentID != findings[j].StudentID {
			return findings[i].StudentID < findings[j].StudentID
		}
		return findings[i].UmbrellaKey < findings[j].UmbrellaKey
	})
	fmt.Println("Ledger discrepancies:")
	for _, f := range findings {
		scope := f.UmbrellaKey
		if scope == "" {
			scope = "(total)"
		}
		fmt.Printf("- %s %s: %s ledger=%.6f expected=%.6f\n", f.StudentID, scope, f.Kind, f.Recorded, f.Expected)
	}
	fmt.Printf("Discrepancies: %d\n", len(findings))
}
