// Package main - консольный генератор табеля (Marksheet).
//
// Собирает полный табель ученика за сессию и печатает его в stdout
// в формате JSON: построчные результаты основных предметов, кружковые
// и факультативные результаты, сводные итоги. Вместо одного ученика
// можно указать секцию - тогда печатаются табели всех её активных
// учеников по порядку номеров.
//
// Запуск:
//
//	marksheet -tenant=<school> -session=<session-id> -student=<student-id>
//	marksheet -tenant=<school> -session=<session-id> -section=<section-id>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/mektep-io/academic-core/config"
	"github.com/mektep-io/academic-core/internal/application/query"
	"github.com/mektep-io/academic-core/internal/domain/shared"
	"github.com/mektep-io/academic-core/internal/infrastructure/persistence/postgres"
	"github.com/mektep-io/academic-core/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ФЛАГИ И КОНФИГУРАЦИЯ
	// ─────────────────────────────────────────────────────────────────────────
	var (
		tenant    = flag.String("tenant", "", "school identifier (required)")
		studentID = flag.String("student", "", "student id (one of -student / -section)")
		sectionID = flag.String("section", "", "section id (one of -student / -section)")
		sessionID = flag.String("session", "", "session id (for -student defaults to the student's current session; required with -section)")
	)
	flag.Parse()

	if *tenant == "" {
		flag.Usage()
		return fmt.Errorf("-tenant is required")
	}
	if (*studentID == "") == (*sectionID == "") {
		flag.Usage()
		return fmt.Errorf("exactly one of -student and -section is required")
	}
	if *sectionID != "" && *sessionID == "" {
		flag.Usage()
		return fmt.Errorf("-session is required with -section")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Отчётный инструмент пишет табели в stdout, поэтому журнал уходит
	// в stderr.
	log := logger.New(logger.Options{
		Output: os.Stderr,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		Format: logger.Format(cfg.Observability.LogFormat),
	})

	tenantID, err := shared.NewTenantID(*tenant)
	if err != nil {
		return fmt.Errorf("invalid tenant: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. СБОРКА ТАБЕЛЕЙ
	// ─────────────────────────────────────────────────────────────────────────
	enrollmentRepo := postgres.NewEnrollmentRepository(dbConn)
	handler := query.NewGetMarksheetHandler(
		postgres.NewStudentRepository(dbConn),
		enrollmentRepo,
		postgres.NewSubjectRepository(dbConn),
		postgres.NewCategoryRepository(dbConn),
		postgres.NewResultRepository(dbConn),
	)

	studentIDs := []string{*studentID}
	if *sectionID != "" {
		active, err := enrollmentRepo.ListActiveBySection(ctx, tenantID, *sessionID, *sectionID)
		if err != nil {
			return fmt.Errorf("failed to list section enrollments: %w", err)
		}
		if len(active) == 0 {
			return fmt.Errorf("section %s has no active enrollments in session %s", *sectionID, *sessionID)
		}
		studentIDs = studentIDs[:0]
		for _, enr := range active {
			studentIDs = append(studentIDs, enr.StudentID)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	var failed int
	for _, sid := range studentIDs {
		result, err := handler.Handle(ctx, query.GetMarksheetQuery{
			TenantID:  tenantID,
			StudentID: sid,
			SessionID: *sessionID,
		})
		if err != nil {
			log.Error("marksheet build failed",
				logger.TenantID(tenantID.String()),
				logger.StudentID(sid),
				logger.Err(err),
			)
			failed++
			continue
		}
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode marksheet: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d marksheets failed", failed, len(studentIDs))
	}
	return nil
}
