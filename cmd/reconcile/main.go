package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/yungbote/kinship-backend/internal/app"
	"github.com/yungbote/kinship-backend/internal/services"
)

func main() {
	var (
		userFlag    string
		courseFlag  string
		dryRun      bool
		limit       int
		concurrency int
	)
	flag.StringVar(&userFlag, "user", "", "only reconcile this user_id")
	flag.StringVar(&courseFlag, "course", "", "only reconcile this course_id")
	flag.BoolVar(&dryRun, "dry-run", false, "report missing certificates without writing")
	flag.IntVar(&limit, "limit", 0, "limit number of enrollments visited (0 = all)")
	flag.IntVar(&concurrency, "concurrency", 4, "enrollments processed in parallel")
	flag.Parse()

	opts := services.ReconcileOptions{DryRun: dryRun, Limit: limit, Concurrency: concurrency}
	var err error
	if opts.UserID, err = parseOptionalUUID(userFlag); err != nil {
		fmt.Fprintf(os.Stderr, "--user: %v\n", err)
		os.Exit(2)
	}
	if opts.CourseID, err = parseOptionalUUID(courseFlag); err != nil {
		fmt.Fprintf(os.Stderr, "--course: %v\n", err)
		os.Exit(2)
	}

	_ = godotenv.Load()
	os.Exit(run(opts))
}

func run(opts services.ReconcileOptions) int {
	application, err := app.NewOffline()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		return 1
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := application.Services.Reconciler.Run(ctx, opts)
	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
	if err != nil {
		application.Log.Error("reconcile failed", "error", err)
		return 1
	}
	if report.Failures > 0 {
		return 3
	}
	return 0
}

func parseOptionalUUID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}
