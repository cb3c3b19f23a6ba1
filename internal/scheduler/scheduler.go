// Package scheduler ejecuta los jobs del puente a intervalos fijos dentro de
// una ventana horaria. Fuera de la ventana los disparos se omiten sin error:
// la siguiente pasada dentro de la ventana recoge el trabajo acumulado.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/saphety-bridge/pkg/logger"
)

// Window ventana horaria diaria expresada en minutos desde medianoche. Puede
// cruzar medianoche: con Start=22:00 y End=06:00 la ventana cubre la noche.
type Window struct {
	start int
	end   int
}

// ParseWindow interpreta los límites "HH:MM" de la ventana.
func ParseWindow(startTime, endTime string) (Window, error) {
	start, err := parseMinutes(startTime)
	if err != nil {
		return Window{}, fmt.Errorf("hora de inicio inválida %q: %w", startTime, err)
	}
	end, err := parseMinutes(endTime)
	if err != nil {
		return Window{}, fmt.Errorf("hora de fin inválida %q: %w", endTime, err)
	}
	return Window{start: start, end: end}, nil
}

// Contains informa si el instante cae dentro de la ventana.
func (w Window) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	if w.start <= w.end {
		return w.start <= m && m <= w.end
	}
	// La ventana cruza medianoche.
	return m >= w.start || m <= w.end
}

func parseMinutes(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("se espera formato HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("hora fuera de rango")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("minutos fuera de rango")
	}
	return h*60 + m, nil
}

// Job función de un job programado. El error se registra y no detiene el
// scheduler: el siguiente disparo vuelve a intentarlo.
type Job func(ctx context.Context) error

// Scheduler planificador de los jobs del servicio sobre robfig/cron.
type Scheduler struct {
	cron   *cron.Cron
	window Window
	log    *logger.Logger
}

// New crea el scheduler con la ventana compartida por todos los jobs.
func New(window Window, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		window: window,
		log:    log,
	}
}

// AddJob programa un job cada everyMinutes minutos. El job solo corre si el
// disparo cae dentro de la ventana.
func (s *Scheduler) AddJob(name string, everyMinutes int, job Job) error {
	if everyMinutes <= 0 {
		return fmt.Errorf("intervalo inválido para el job %s: %d", name, everyMinutes)
	}
	spec := fmt.Sprintf("@every %dm", everyMinutes)
	_, err := s.cron.AddFunc(spec, func() {
		s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("programar el job %s: %w", name, err)
	}
	s.log.Info().Str("job", name).Int("every_minutes", everyMinutes).Msg("job programado")
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	if !s.window.Contains(time.Now()) {
		s.log.Debug().Str("job", name).Msg("fuera de la ventana horaria, se omite")
		return
	}
	s.log.Info().Str("job", name).Msg("job iniciado")
	if err := job(context.Background()); err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("job terminado con error")
		return
	}
	s.log.Info().Str("job", name).Msg("job terminado")
}

// Start arranca el planificador en segundo plano.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop detiene el planificador y espera a que terminen los jobs en curso.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
