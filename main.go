package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	alertapp "medequip-cloud/internal/alerts/application"
	alerts "medequip-cloud/internal/alerts/domain"
	alertmemory "medequip-cloud/internal/alerts/infrastructure/memory"
	alertpg "medequip-cloud/internal/alerts/infrastructure/postgres"
	alertinterfaces "medequip-cloud/internal/alerts/interfaces"
	alerthttp "medequip-cloud/internal/alerts/interfaces/http"
	alertnotify "medequip-cloud/internal/alerts/notify"
	analyticsapp "medequip-cloud/internal/analytics/application"
	analyticshttp "medequip-cloud/internal/analytics/interfaces/http"
	apihttp "medequip-cloud/internal/api/http"
	assetsapp "medequip-cloud/internal/assets/application"
	assetevents "medequip-cloud/internal/assets/application/events"
	assets "medequip-cloud/internal/assets/domain"
	assetmemory "medequip-cloud/internal/assets/infrastructure/memory"
	assetpg "medequip-cloud/internal/assets/infrastructure/postgres"
	assethttp "medequip-cloud/internal/assets/interfaces/http"
	"medequip-cloud/internal/assets/interfaces/rfid"
	"medequip-cloud/internal/audit"
	"medequip-cloud/internal/auth"
	"medequip-cloud/internal/eventing"
	"medequip-cloud/internal/eventing/eventbus"
	eventmemory "medequip-cloud/internal/eventing/infrastructure/memory"
	eventpg "medequip-cloud/internal/eventing/infrastructure/postgres"
	inventory "medequip-cloud/internal/inventory/domain"
	invmemory "medequip-cloud/internal/inventory/infrastructure/memory"
	invpg "medequip-cloud/internal/inventory/infrastructure/postgres"
	invinterfaces "medequip-cloud/internal/inventory/interfaces"
	invhttp "medequip-cloud/internal/inventory/interfaces/http"
	maintenanceapp "medequip-cloud/internal/maintenance/application"
	maintenanceevents "medequip-cloud/internal/maintenance/application/events"
	maintenance "medequip-cloud/internal/maintenance/domain"
	maintmemory "medequip-cloud/internal/maintenance/infrastructure/memory"
	maintpg "medequip-cloud/internal/maintenance/infrastructure/postgres"
	mainthttp "medequip-cloud/internal/maintenance/interfaces/http"
	masterdata "medequip-cloud/internal/masterdata/domain"
	mdmemory "medequip-cloud/internal/masterdata/infrastructure/memory"
	mdpg "medequip-cloud/internal/masterdata/infrastructure/postgres"
	"medequip-cloud/internal/observability/metrics"
	scoringapp "medequip-cloud/internal/scoring/application"
	scoringinterfaces "medequip-cloud/internal/scoring/interfaces"
	scoringhttp "medequip-cloud/internal/scoring/interfaces/http"
	"medequip-cloud/internal/seeding"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
	}

	metrics.Init(db, logger)

	var (
		auditLogger    audit.Logger
		assetRepo      assets.AssetRepository
		movementRepo   assets.MovementRepository
		orderRepo      maintenance.WorkOrderRepository
		partRepo       inventory.PartRepository
		locationRepo   masterdata.LocationRepository
		technicianRepo masterdata.TechnicianRepository
		alertRepo      alerts.AlertRepository
		outboxStore    outboxBackend
		processedStore eventing.ProcessedStore
		dlqStore       eventing.DLQStore
	)

	if db != nil {
		auditLogger = audit.NewRepository(db)
		assetRepo = assetpg.NewAssetRepository(db)
		movementRepo = assetpg.NewMovementRepository(db)
		orderRepo = maintpg.NewWorkOrderRepository(db)
		partRepo = invpg.NewPartRepository(db)
		locationRepo = mdpg.NewLocationRepository(db)
		technicianRepo = mdpg.NewTechnicianRepository(db)
		alertRepo = alertpg.NewAlertRepository(db)
		outboxStore = eventpg.NewOutboxStore(db)
		processedStore = eventpg.NewProcessedStore(db)
		dlqStore = eventpg.NewDLQStore(db)
	} else {
		logger.Printf("no DATABASE_URL configured, running on in-memory stores with demo data")
		auditLogger = audit.NewLogWriter(logger)
		assetRepo = assetmemory.NewAssetRepository()
		movementRepo = assetmemory.NewMovementRepository()
		orderRepo = maintmemory.NewWorkOrderRepository()
		partRepo = invmemory.NewPartRepository()
		locationRepo = mdmemory.NewLocationRepository()
		technicianRepo = mdmemory.NewTechnicianRepository()
		alertRepo = alertmemory.NewAlertRepository()
		outboxStore = eventmemory.NewOutboxStore()
		processedStore = eventmemory.NewProcessedStore()
		dlqStore = eventmemory.NewDLQStore()
	}

	baseBus := eventbus.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(maintenanceevents.FaultReported{})
	registry.Register(maintenanceevents.WorkOrderAssigned{})
	registry.Register(maintenanceevents.WorkOrderClosed{})
	registry.Register(assetevents.AssetRelocated{})
	registry.Register(assetevents.RiskScoreUpdated{})

	dispatcher := eventing.NewDispatcher(baseBus, outboxStore, registry, dlqStore)
	publisher := eventing.NewPublisher(outboxStore, dispatcher, cfg.FacilityID, baseBus)
	bus := publisher

	assetService, err := assetsapp.NewService(assetRepo, movementRepo, bus, systemClock{})
	if err != nil {
		logger.Fatalf("asset service error: %v", err)
	}
	maintenanceService, err := maintenanceapp.NewService(orderRepo, assetRepo, bus, systemClock{})
	if err != nil {
		logger.Fatalf("maintenance service error: %v", err)
	}
	scoringService, err := scoringapp.NewService(assetRepo, movementRepo, orderRepo, partRepo, technicianRepo, locationRepo, bus, systemClock{})
	if err != nil {
		logger.Fatalf("scoring service error: %v", err)
	}
	dashboardService, err := analyticsapp.NewDashboardService(assetRepo, orderRepo, systemClock{})
	if err != nil {
		logger.Fatalf("dashboard service error: %v", err)
	}

	if db == nil {
		dataset := seeding.DemoGenerator{}.Generate(time.Now().UTC())
		repos := seeding.Repositories{
			Locations:   locationRepo,
			Technicians: technicianRepo,
			Assets:      assetRepo,
			Parts:       partRepo,
			Orders:      orderRepo,
			Movements:   movementRepo,
		}
		if err := seeding.Apply(context.Background(), dataset, repos); err != nil {
			logger.Fatalf("demo seed error: %v", err)
		}
		if _, err := scoringService.RefreshAll(context.Background()); err != nil {
			logger.Printf("initial risk refresh error: %v", err)
		}
	}

	alertConfig, err := alertapp.LoadConfig()
	if err != nil {
		logger.Fatalf("alert config error: %v", err)
	}
	alertBroker := alerthttp.NewSSEBroker()
	alertNotifiers := []alertapp.AlertNotifier{alertBroker}
	if alertConfig.WebhookURL != "" {
		channel, err := alertnotify.NewWebhookChannel(alertConfig.WebhookURL)
		if err != nil {
			logger.Fatalf("alert webhook error: %v", err)
		}
		tpl, err := alertnotify.NewTemplate(alertConfig.NotifyTemplate)
		if err != nil {
			logger.Fatalf("alert template error: %v", err)
		}
		notifier, err := alertnotify.NewNotifier(assetRepo, alertRepo, channel, tpl,
			alertnotify.WithEscalation(cfg.AlertEscalationAfter),
			alertnotify.WithCooldown(alertConfig.NotifyCooldown),
			alertnotify.WithRequestTimeout(alertConfig.NotifyTimeout),
		)
		if err != nil {
			logger.Fatalf("alert notifier error: %v", err)
		}
		alertNotifiers = append(alertNotifiers, notifier)
	}
	alertService, err := alertapp.NewService(alertRepo, alertConfig, systemClock{},
		alertapp.WithNotifier(alertnotify.NewMultiNotifier(alertNotifiers...)))
	if err != nil {
		logger.Fatalf("alert service error: %v", err)
	}

	departmentLookup := masterdata.DepartmentLookupFromRepo(context.Background(), locationRepo)
	riskConsumer, err := alertinterfaces.NewRiskScoreConsumer(alertService, departmentLookup)
	if err != nil {
		logger.Fatalf("risk consumer error: %v", err)
	}
	eventing.Subscribe(baseBus, eventbus.EventTypeOf[assetevents.RiskScoreUpdated](), "alerts.risk", riskConsumer.HandleRiskScoreUpdated, processedStore)

	scoringConsumer, err := scoringinterfaces.NewMaintenanceEventConsumer(scoringService)
	if err != nil {
		logger.Fatalf("scoring consumer error: %v", err)
	}
	eventing.Subscribe(baseBus, eventbus.EventTypeOf[maintenanceevents.FaultReported](), "scoring.fault", scoringConsumer.HandleFaultReported, processedStore)
	eventing.Subscribe(baseBus, eventbus.EventTypeOf[maintenanceevents.WorkOrderClosed](), "scoring.close", scoringConsumer.HandleWorkOrderClosed, processedStore)
	eventing.Subscribe(baseBus, eventbus.EventTypeOf[assetevents.AssetRelocated](), "scoring.move", scoringConsumer.HandleAssetRelocated, processedStore)

	stockConsumer, err := invinterfaces.NewWorkOrderClosedConsumer(partRepo, logger)
	if err != nil {
		logger.Fatalf("stock consumer error: %v", err)
	}
	eventing.Subscribe(baseBus, eventbus.EventTypeOf[maintenanceevents.WorkOrderClosed](), "inventory.close", stockConsumer.Consume, processedStore)

	go func() {
		ticker := time.NewTicker(cfg.RiskRefreshInterval)
		defer ticker.Stop()
		for range ticker.C {
			start := time.Now()
			changed, err := scoringService.RefreshAll(context.Background())
			if err != nil {
				metrics.ObserveRiskRefresh(metrics.ResultError, time.Since(start))
				logger.Printf("risk refresh error: %v", err)
				continue
			}
			metrics.ObserveRiskRefresh(metrics.ResultSuccess, time.Since(start))
			if changed > 0 {
				logger.Printf("risk refresh: %d assets changed", changed)
			}
		}
	}()

	assetHandler, err := assethttp.NewHandler(assetService, assetRepo, movementRepo, auditLogger)
	if err != nil {
		logger.Fatalf("asset handler error: %v", err)
	}
	workOrderHandler, err := mainthttp.NewHandler(maintenanceService, orderRepo, auditLogger)
	if err != nil {
		logger.Fatalf("workorder handler error: %v", err)
	}
	partHandler, err := invhttp.NewHandler(partRepo, auditLogger)
	if err != nil {
		logger.Fatalf("part handler error: %v", err)
	}
	scoringHandler, err := scoringhttp.NewHandler(scoringService)
	if err != nil {
		logger.Fatalf("scoring handler error: %v", err)
	}
	alertHandler, err := alerthttp.NewHandler(alertService)
	if err != nil {
		logger.Fatalf("alert handler error: %v", err)
	}
	statsHandler, err := analyticshttp.NewStatsHandler(dashboardService)
	if err != nil {
		logger.Fatalf("stats handler error: %v", err)
	}
	ingestHandler, err := rfid.NewIngestHandler(assetService, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	ingestAuth := auth.NewIngestAuthMiddleware([]byte(cfg.IngestSecret), time.Duration(cfg.IngestSkewSeconds)*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/ingest/rfid/movements", ingestAuth.Wrap(ingestHandler))
	mux.Handle("/api/v1/assets", assetHandler)
	mux.Handle("/api/v1/assets/", assetHandler)
	mux.Handle("/api/v1/workorders", workOrderHandler)
	mux.Handle("/api/v1/workorders/", workOrderHandler)
	mux.Handle("/api/v1/parts", partHandler)
	mux.Handle("/api/v1/parts/", partHandler)
	mux.Handle("/api/v1/recommendations", scoringHandler)
	mux.Handle("/api/v1/patterns", scoringHandler)
	mux.Handle("/api/v1/risk", scoringHandler)
	mux.Handle("/api/v1/risk/refresh", scoringHandler)
	mux.Handle("/api/v1/alerts", alertHandler)
	mux.Handle("/api/v1/alerts/", alertHandler)
	mux.Handle("/api/v1/alerts/stream", alerthttp.NewStreamHandler(alertBroker))
	mux.Handle("/api/v1/stats", statsHandler)
	mux.Handle("/api/v1/exports/workorders.csv", apihttp.NewExportWorkOrdersCSVHandler(orderRepo))
	mux.Handle("/api/v1/exports/workorders/", apihttp.NewExportWorkOrderPDFHandler(orderRepo, assetRepo, partRepo))
	mux.Handle("/api/v1/exports/assets.xlsx", apihttp.NewExportAssetsXLSXHandler(assetRepo))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL          string
	HTTPAddr             string
	FacilityID           string
	RiskRefreshInterval  time.Duration
	AlertEscalationAfter time.Duration
	JWTSecret            string
	IngestSecret         string
	IngestSkewSeconds    int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:          getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:             getenvDefault("HTTP_ADDR", ":8080"),
		FacilityID:           getenvDefault("FACILITY_ID", "facility-demo"),
		RiskRefreshInterval:  getenvDuration("RISK_REFRESH_INTERVAL", time.Hour),
		AlertEscalationAfter: getenvDuration("ALERT_ESCALATION_AFTER", 0),
		JWTSecret:            getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestSecret:         getenvDefault("INGEST_HMAC_SECRET", ""),
		IngestSkewSeconds:    getenvIntDefault("INGEST_MAX_SKEW_SECONDS", 300),
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// outboxBackend joins the writer and reader halves of the outbox so a
// single store can back both the publisher and the dispatcher.
type outboxBackend interface {
	eventing.OutboxWriter
	eventing.OutboxStore
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
