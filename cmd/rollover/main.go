// Package main - точка входа для пакетного перевода учеников (Rollover).
//
// Rollover выполняется в конце учебного года: каждая активная запись
// о зачислении исходной сессии закрывается, и ученик либо переводится
// в следующий класс целевой сессии, либо выпускается, если следующего
// класса нет. История никогда не переписывается - старая запись получает
// ссылку на преемника, текущие указатели ученика переносятся.
//
// Запуск:
//
//	rollover -tenant=<school> -from=<session-id> -to=<session-id> [-dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mektep-io/academic-core/config"
	"github.com/mektep-io/academic-core/internal/application/command"
	"github.com/mektep-io/academic-core/internal/application/eventhandler"
	"github.com/mektep-io/academic-core/internal/domain/enrollment"
	"github.com/mektep-io/academic-core/internal/domain/shared"
	"github.com/mektep-io/academic-core/internal/infrastructure/messaging"
	"github.com/mektep-io/academic-core/internal/infrastructure/persistence/postgres"
	"github.com/mektep-io/academic-core/internal/infrastructure/persistence/redis"
	"github.com/mektep-io/academic-core/pkg/logger"
	"github.com/mektep-io/academic-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// FLAGS
// ══════════════════════════════════════════════════════════════════════════════

type flags struct {
	Tenant      string
	FromSession string
	ToSession   string
	DryRun      bool
}

func parseFlags() (*flags, error) {
	f := &flags{}
	flag.StringVar(&f.Tenant, "tenant", "", "school identifier (required)")
	flag.StringVar(&f.FromSession, "from", "", "source session id (required)")
	flag.StringVar(&f.ToSession, "to", "", "target session id (required)")
	flag.BoolVar(&f.DryRun, "dry-run", false, "log the promotion plan without writing")
	flag.Parse()

	var missing []string
	if f.Tenant == "" {
		missing = append(missing, "-tenant")
	}
	if f.FromSession == "" {
		missing = append(missing, "-from")
	}
	if f.ToSession == "" {
		missing = append(missing, "-to")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required flags are missing: %s", strings.Join(missing, ", "))
	}
	if f.FromSession == f.ToSession {
		return nil, fmt.Errorf("-from and -to must name different sessions")
	}
	return f, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

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
	f, err := parseFlags()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Флаг командной строки перекрывает конфигурацию.
	dryRun := f.DryRun || cfg.Rollover.DryRun

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.Setup(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	log.Info("starting session rollover",
		"env", cfg.App.Environment,
		logger.TenantID(f.Tenant),
		"from_session", f.FromSession,
		"to_session", f.ToSession,
		"dry_run", dryRun,
	)

	tenantID, err := shared.NewTenantID(f.Tenant)
	if err != nil {
		return fmt.Errorf("invalid tenant: %w", err)
	}

	if !cfg.Features.IsEnabled(config.FeatureBulkPromotion, &config.FeatureContext{TenantID: tenantID.String()}) {
		return fmt.Errorf("bulk promotion is disabled for tenant %s", tenantID)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. МИГРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ШИНА СОБЫТИЙ И ОБРАБОТЧИКИ
	// Синхронный режим: пакетная задача должна дописать журнал аудита
	// до завершения процесса.
	// ─────────────────────────────────────────────────────────────────────────
	eventBus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode: false,
	})
	defer eventBus.Close()

	if cfg.Features.IsEnabled(config.FeatureAuditLog, &config.FeatureContext{TenantID: tenantID.String()}) {
		auditHandler := eventhandler.NewOnEnrollmentChangedHandler(log)
		if err := auditHandler.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register audit handler: %w", err)
		}
	}

	// Инвалидация кеша конфигурации подключается вместе с Redis; без него
	// читатели и так пойдут в PostgreSQL.
	if !cfg.Redis.Disabled {
		cache, err := redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("redis unavailable, config cache invalidation disabled", logger.Err(err))
		} else {
			defer cache.Close()
			configHandler := eventhandler.NewOnConfigChangedHandler(redis.NewConfigCache(cache), log)
			if err := configHandler.Register(eventBus); err != nil {
				return fmt.Errorf("failed to register config cache handler: %w", err)
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. РЕПОЗИТОРИИ И ОБРАБОТЧИКИ КОМАНД
	// ─────────────────────────────────────────────────────────────────────────
	sessionRepo := postgres.NewSessionRepository(dbConn)
	classRepo := postgres.NewClassRepository(dbConn)
	enrollmentRepo := postgres.NewEnrollmentRepository(dbConn)
	uowFactory := postgres.NewUnitOfWorkFactory(dbConn)

	promoteHandler := command.NewPromoteStudentHandler(sessionRepo, classRepo, uowFactory, eventBus)
	concludeHandler := command.NewConcludeEnrollmentHandler(sessionRepo, uowFactory, eventBus)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ВЫПОЛНЕНИЕ ПЕРЕВОДА
	// ─────────────────────────────────────────────────────────────────────────
	jobCtx, cancel := context.WithTimeout(ctx, cfg.Rollover.JobTimeout)
	defer cancel()

	job := &rolloverJob{
		tenantID:       tenantID,
		fromSessionID:  f.FromSession,
		toSessionID:    f.ToSession,
		dryRun:         dryRun,
		batchSize:      cfg.Rollover.BatchSize,
		classRepo:      classRepo,
		enrollmentRepo: enrollmentRepo,
		promote:        promoteHandler,
		conclude:       concludeHandler,
		log:            log,
	}

	started := timeutil.Now()
	stats, err := job.Run(jobCtx)
	if err != nil {
		return fmt.Errorf("rollover failed: %w", err)
	}

	log.Info("rollover finished",
		"promoted", stats.Promoted,
		"graduated", stats.Graduated,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		logger.Latency(time.Since(started)),
	)
	if stats.Failed > 0 {
		return fmt.Errorf("rollover completed with %d failures", stats.Failed)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ROLLOVER JOB
// ══════════════════════════════════════════════════════════════════════════════

// rolloverStats - итоги пакетного перевода.
type rolloverStats struct {
	Promoted  int
	Graduated int
	Skipped   int
	Failed    int
}

type rolloverJob struct {
	tenantID      shared.TenantID
	fromSessionID string
	toSessionID   string
	dryRun        bool
	batchSize     int

	classRepo      enrollment.ClassRepository
	enrollmentRepo enrollment.Repository
	promote        *command.PromoteStudentHandler
	conclude       *command.ConcludeEnrollmentHandler

	log *slog.Logger
}

// Run переводит все активные записи исходной сессии.
func (j *rolloverJob) Run(ctx context.Context) (*rolloverStats, error) {
	// Классы загружаются один раз: план перевода строится по полю
	// Numeric (Grade 7 -> Grade 8), максимальный номер означает выпуск.
	classes, err := j.classRepo.ListClasses(ctx, j.tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("tenant %s has no classes", j.tenantID)
	}

	byID := make(map[string]*enrollment.Class, len(classes))
	byNumeric := make(map[int]*enrollment.Class, len(classes))
	maxNumeric := 0
	for _, c := range classes {
		byID[c.ID] = c
		byNumeric[c.Numeric] = c
		if c.Numeric > maxNumeric {
			maxNumeric = c.Numeric
		}
	}

	active, err := j.enrollmentRepo.ListActiveBySession(ctx, j.tenantID, j.fromSessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active enrollments: %w", err)
	}
	j.log.Info("rollover plan",
		"enrollments", len(active),
		"classes", len(classes),
		"top_class", maxNumeric,
	)

	stats := &rolloverStats{}
	for i, enr := range active {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		currentClass, ok := byID[enr.ClassID]
		if !ok {
			j.log.Warn("enrollment references unknown class, skipping",
				logger.EnrollmentID(enr.ID),
				logger.ClassID(enr.ClassID),
			)
			stats.Skipped++
			continue
		}

		if currentClass.Numeric >= maxNumeric {
			j.graduate(ctx, enr, currentClass, stats)
		} else {
			nextClass, ok := byNumeric[currentClass.Numeric+1]
			if !ok {
				j.log.Warn("no class follows, skipping",
					logger.EnrollmentID(enr.ID),
					"class_numeric", currentClass.Numeric,
				)
				stats.Skipped++
				continue
			}
			j.promoteOne(ctx, enr, nextClass, stats)
		}

		if j.batchSize > 0 && (i+1)%j.batchSize == 0 {
			j.log.Info("rollover progress",
				"processed", i+1,
				"total", len(active),
			)
		}
	}
	return stats, nil
}

func (j *rolloverJob) graduate(ctx context.Context, enr *enrollment.Enrollment, class *enrollment.Class, stats *rolloverStats) {
	if j.dryRun {
		j.log.Info("dry-run: would graduate",
			logger.StudentID(enr.StudentID),
			"class", class.Name,
		)
		stats.Graduated++
		return
	}

	err := j.conclude.Handle(ctx, command.ConcludeEnrollmentCommand{
		TenantID:   j.tenantID,
		StudentID:  enr.StudentID,
		SessionID:  j.fromSessionID,
		Conclusion: command.ConclusionGraduate,
		Remarks:    fmt.Sprintf("completed %s", class.Name),
	})
	if err != nil {
		j.log.Error("graduation failed",
			logger.StudentID(enr.StudentID),
			logger.Err(err),
		)
		stats.Failed++
		return
	}
	stats.Graduated++
}

func (j *rolloverJob) promoteOne(ctx context.Context, enr *enrollment.Enrollment, nextClass *enrollment.Class, stats *rolloverStats) {
	sectionID, err := j.matchSection(ctx, enr.SectionID, nextClass.ID)
	if err != nil {
		j.log.Error("section lookup failed",
			logger.StudentID(enr.StudentID),
			logger.Err(err),
		)
		stats.Failed++
		return
	}

	if j.dryRun {
		j.log.Info("dry-run: would promote",
			logger.StudentID(enr.StudentID),
			"to_class", nextClass.Name,
			"to_section", sectionID,
		)
		stats.Promoted++
		return
	}

	_, err = j.promote.Handle(ctx, command.PromoteStudentCommand{
		TenantID:      j.tenantID,
		StudentID:     enr.StudentID,
		FromSessionID: j.fromSessionID,
		ToSessionID:   j.toSessionID,
		ToClassID:     nextClass.ID,
		ToSectionID:   sectionID,
	})
	if err != nil {
		j.log.Error("promotion failed",
			logger.StudentID(enr.StudentID),
			logger.Err(err),
		)
		stats.Failed++
		return
	}
	stats.Promoted++
}

// matchSection подбирает секцию следующего класса: по совпадению названия
// с текущей секцией ученика, иначе первая секция класса.
func (j *rolloverJob) matchSection(ctx context.Context, currentSectionID, nextClassID string) (string, error) {
	sections, err := j.classRepo.ListSections(ctx, j.tenantID, nextClassID)
	if err != nil {
		return "", err
	}
	if len(sections) == 0 {
		return "", fmt.Errorf("class %s has no sections", nextClassID)
	}

	current, err := j.classRepo.GetSection(ctx, j.tenantID, currentSectionID)
	if err != nil {
		return sections[0].ID, nil
	}
	for _, s := range sections {
		if s.Name == current.Name {
			return s.ID, nil
		}
	}
	return sections[0].ID, nil
}
