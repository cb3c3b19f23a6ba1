// Puente de facturación electrónica entre Sage X3 y la red Saphety (CIUS-PT).
//
// Sin argumentos ejecuta un ciclo completo (generar, enviar, verificar) y
// termina. Con -service queda residente y repite los ciclos según la
// planificación configurada.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/saphety-bridge/internal/application/saphety"
	"github.com/jhoicas/saphety-bridge/internal/domain/ciuspt"
	"github.com/jhoicas/saphety-bridge/internal/infrastructure/postgres"
	saphetyapi "github.com/jhoicas/saphety-bridge/internal/infrastructure/saphety"
	"github.com/jhoicas/saphety-bridge/internal/infrastructure/ubl"
	"github.com/jhoicas/saphety-bridge/internal/scheduler"
	"github.com/jhoicas/saphety-bridge/pkg/config"
	"github.com/jhoicas/saphety-bridge/pkg/logger"
)

func main() {
	var (
		invoiceFlag = flag.String("invoice", "", "procesar solo esta factura (vacío = todas)")
		checkFlag   = flag.String("check", "", "solo verificar el estado de integración de esta factura (CHECK_ALL = todas)")
		serviceFlag = flag.Bool("service", false, "correr como servicio con los jobs planificados")
		logLevel    = flag.String("log-level", "info", "nivel de log: trace, debug, info, warn, error")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal().Err(err).Msg("configuración inválida")
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: *logLevel,
		File:  cfg.App.LogFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo conectar a la base de datos")
	}
	defer pool.Close()

	// Persistencia
	schema := cfg.DB.Schema
	invoices := postgres.NewSalesInvoiceRepository(pool, schema)
	companies := postgres.NewCompanyRepository(pool, schema)
	controlView := postgres.NewControlViewRepository(pool, schema)
	txRunner := postgres.NewTxRunner(pool, schema)

	// Perfil de mapeo del cliente
	if cfg.Saphety.PDFDirectory != "" {
		ciuspt.RegisterMapper(ciuspt.ProfileMOP, &ciuspt.MOPMapper{PDFDirectory: cfg.Saphety.PDFDirectory})
	}
	mapper, known := ciuspt.MapperFor(cfg.Saphety.CustomerProfile)
	if !known {
		log.Warn().Str("profile", cfg.Saphety.CustomerProfile).Strs("disponibles", ciuspt.Profiles()).Msg("perfil de cliente no registrado, se usa DEFAULT")
	}

	// Generación y almacenamiento de XML
	builder := ubl.NewBuilder(companies, mapper, log)
	store, err := ubl.NewStore(cfg.Saphety.OutputDirectory, log)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo preparar la carpeta de salida")
	}
	if files, err := store.List(""); err != nil {
		log.Warn().Err(err).Msg("no se pudo listar la carpeta de salida")
	} else {
		log.Info().Int("ficheros", len(files)).Str("dir", cfg.Saphety.OutputDirectory).Msg("carpeta de salida lista")
	}

	// Cliente de la API Saphety
	client := saphetyapi.NewClient(cfg.Saphety.Server, log)
	creds := saphety.Credentials{Username: cfg.Saphety.User, Password: cfg.Saphety.Password}

	// Orquestadores
	control := saphety.NewControlService(controlView, log)
	generation := saphety.NewGenerationOrchestrator(invoices, builder, store, control, txRunner, log)
	submission := saphety.NewSubmissionOrchestrator(control, store, client, client, txRunner, creds, log)
	statusCheck := saphety.NewStatusCheckOrchestrator(control, client, client, txRunner, creds, log)

	switch {
	case *checkFlag != "":
		if err := statusCheck.VerifyInvoiceStatus(ctx, *checkFlag); err != nil {
			log.Fatal().Err(err).Msg("verificación de estado fallida")
		}
	case *serviceFlag:
		runService(ctx, cfg.Schedule, generation, submission, statusCheck, log)
	default:
		runOnce(ctx, *invoiceFlag, generation, submission, statusCheck, log)
	}
}

// runOnce ejecuta un ciclo completo: generar, enviar y verificar. Cada fase
// reporta sus fallos por factura; un error de fase no corta las siguientes.
func runOnce(
	ctx context.Context,
	invoiceNumber string,
	generation *saphety.GenerationOrchestrator,
	submission *saphety.SubmissionOrchestrator,
	statusCheck *saphety.StatusCheckOrchestrator,
	log *logger.Logger,
) {
	if err := generation.ProcessPendingInvoices(ctx, invoiceNumber); err != nil {
		log.Error().Err(err).Msg("ciclo de generación fallido")
	}
	if err := submission.SendPendingInvoices(ctx, invoiceNumber); err != nil {
		log.Error().Err(err).Msg("ciclo de envío fallido")
	}
	if err := statusCheck.VerifyInvoiceStatus(ctx, invoiceNumber); err != nil {
		log.Error().Err(err).Msg("ciclo de verificación fallido")
	}
}

// runService planifica los tres jobs dentro de la ventana horaria y bloquea
// hasta recibir una señal de parada.
func runService(
	ctx context.Context,
	cfg config.ScheduleConfig,
	generation *saphety.GenerationOrchestrator,
	submission *saphety.SubmissionOrchestrator,
	statusCheck *saphety.StatusCheckOrchestrator,
	log *logger.Logger,
) {
	if !cfg.Enabled {
		log.Fatal().Msg("el modo servicio requiere SCHEDULE_ENABLED=true")
	}

	window, err := scheduler.ParseWindow(cfg.StartTime, cfg.EndTime)
	if err != nil {
		log.Fatal().Err(err).Msg("ventana horaria inválida")
	}

	sched := scheduler.New(window, log)
	jobs := []struct {
		name    string
		minutes int
		fn      scheduler.Job
	}{
		{"generacion", cfg.GenerateEveryMinutes, func(ctx context.Context) error {
			return generation.ProcessPendingInvoices(ctx, "")
		}},
		{"envio", cfg.SendEveryMinutes, func(ctx context.Context) error {
			return submission.SendPendingInvoices(ctx, "")
		}},
		{"verificacion", cfg.CheckEveryMinutes, func(ctx context.Context) error {
			return statusCheck.VerifyInvoiceStatus(ctx, "")
		}},
	}
	for _, j := range jobs {
		if err := sched.AddJob(j.name, j.minutes, j.fn); err != nil {
			log.Fatal().Err(err).Msg("no se pudo programar el job")
		}
	}

	sched.Start()
	log.Info().Str("inicio", cfg.StartTime).Str("fin", cfg.EndTime).Msg("servicio iniciado")

	<-ctx.Done()
	log.Info().Msg("señal de parada recibida, cerrando")
	sched.Stop()
}
