// Command tankd regulates a water tank pump from level readings and publishes
// telemetry, leak scan results, and consumption analytics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sweeney/tankd/internal/config"
	"github.com/sweeney/tankd/internal/consumption"
	"github.com/sweeney/tankd/internal/control"
	"github.com/sweeney/tankd/internal/leak"
	"github.com/sweeney/tankd/internal/metrics"
	"github.com/sweeney/tankd/internal/mqtt"
	"github.com/sweeney/tankd/internal/relay"
	"github.com/sweeney/tankd/internal/sensor"
	"github.com/sweeney/tankd/internal/status"
	"github.com/sweeney/tankd/internal/store"
	"github.com/sweeney/tankd/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/tankd/config.yaml", "Path to YAML configuration")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	dbPath := flag.String("db", "/var/lib/tankd/tankd.db", "Path to bolt database")
	tick := flag.Duration("tick", time.Second, "Control tick period")
	telemetry := flag.Duration("telemetry", 30*time.Second, "Level telemetry interval (0 to disable)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	printLevel := flag.Bool("print-level", false, "Print current level and exit")
	scanNow := flag.Int("scan", 0, "Start a one-off leak scan of N minutes at startup")

	flag.Parse()

	if err := run(*configPath, *broker, *httpAddr, *dbPath, *tick, *telemetry, *heartbeat, *printLevel, *scanNow); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(configPath, broker, httpAddr, dbPath string, tick, telemetry, heartbeat time.Duration, printLevel bool, scanNow int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	source, err := sensor.NewRealSource(cfg.Hardware.SensorPin, cfg.Hardware.SensorInverted)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer source.Close()

	if printLevel {
		level, err := source.Read()
		if err != nil {
			return fmt.Errorf("read level: %w", err)
		}
		fmt.Printf("Level: %.1f%%\n", level)
		return nil
	}

	pump, err := relay.NewRealPump(cfg.Hardware.PumpPin, cfg.Hardware.RelayActiveHigh)
	if err != nil {
		return fmt.Errorf("init pump relay: %w", err)
	}
	defer pump.Close()

	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	startTime := time.Now()
	tracker := status.NewTracker(startTime, status.Config{
		TickMs:          tick.Milliseconds(),
		SmoothingWindow: cfg.Sensor.SmoothingWindow,
		OnThreshold:     cfg.Control.OnThresholdPercent,
		OffThreshold:    cfg.Control.OffThresholdPercent,
		HardOff:         cfg.Control.HardOffPercent,
		CapacityLiters:  cfg.Tank.CapacityLiters,
		Broker:          broker,
		HTTPAddr:        httpAddr,
	})

	d := newDaemon(cfg, source, pump, publisher, publisher, tracker, db, metrics.New(), startTime)
	if err := d.restoreLedger(); err != nil {
		log.Printf("restore ledger: %v", err)
	}

	commands := make(chan scanCommand, 1)

	// Nightly scheduled scans run through the same command channel as
	// manual ones; the control loop stays the single owner of scan state.
	if cfg.Leak.Nightly.Enabled {
		c := cron.New()
		nightly := time.Duration(cfg.Leak.Nightly.DurationMinutes) * time.Minute
		if _, err := c.AddFunc(cfg.Leak.Nightly.Schedule, func() {
			select {
			case commands <- scanCommand{duration: nightly}:
			default:
				log.Printf("nightly scan skipped: command queue full")
			}
		}); err != nil {
			return fmt.Errorf("nightly schedule %q: %w", cfg.Leak.Nightly.Schedule, err)
		}
		c.Start()
		defer c.Stop()
	}

	// Publish startup event with full status snapshot.
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if httpAddr != "" {
		gate := &scanGate{tracker: tracker, commands: commands}
		srv := web.New(httpAddr, tracker, gate, db, d.prom.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http server listening on %s", httpAddr)
	}

	if scanNow > 0 {
		commands <- scanCommand{duration: time.Duration(scanNow) * time.Minute, manual: true}
	}

	log.Printf("started: tick=%v broker=%s window=%d on=%.1f%% off=%.1f%% hard_off=%.1f%%",
		tick, broker, cfg.Sensor.SmoothingWindow,
		cfg.Control.OnThresholdPercent, cfg.Control.OffThresholdPercent, cfg.Control.HardOffPercent)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, telemetry, heartbeat, time.Now, ticker.C, sigCh, commands)
}

// scanCommand is an operator or scheduler request handled by the loop.
type scanCommand struct {
	cancel   bool
	manual   bool
	duration time.Duration
}

// scanGate adapts the command channel to the web package's ScanControl.
// The snapshot checks give the API synchronous 409s; the loop re-checks on
// delivery, so a racing request is still rejected safely.
type scanGate struct {
	tracker  *status.Tracker
	commands chan scanCommand
}

func (g *scanGate) StartScan(duration time.Duration) error {
	snap := g.tracker.Snapshot()
	if snap.ScanMode == leak.ModeScanning {
		return leak.ErrScanActive
	}
	if snap.Pump == control.StateOn {
		return leak.ErrPumpRunning
	}
	select {
	case g.commands <- scanCommand{duration: duration, manual: true}:
		return nil
	default:
		return errors.New("scan request already pending")
	}
}

func (g *scanGate) CancelScan() error {
	select {
	case g.commands <- scanCommand{cancel: true}:
		return nil
	default:
		return errors.New("command queue full")
	}
}

// daemon bundles the control loop's state. All mutable core state is owned
// by the goroutine running runLoop; external readers go through the tracker.
type daemon struct {
	cfg        *config.Config
	source     sensor.Source
	pump       relay.Pump
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	db         *store.Store
	prom       *metrics.Metrics

	filter  *control.Filter
	ctrl    *control.Controller
	scanner *leak.Scanner
	drift   *leak.DriftMonitor
	ledger  *consumption.Tracker

	lastSample control.Sample
}

func newDaemon(cfg *config.Config, source sensor.Source, pump relay.Pump, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, db *store.Store, prom *metrics.Metrics, start time.Time) *daemon {
	return &daemon{
		cfg:        cfg,
		source:     source,
		pump:       pump,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		db:         db,
		prom:       prom,
		filter:     control.NewFilter(cfg.Sensor.SmoothingWindow),
		ctrl:       control.NewController(cfg.ControllerConfig(), start),
		scanner:    leak.NewScanner(cfg.Leak.NoiseMarginMinPercent, cfg.Leak.NoiseMarginSigma),
		drift:      leak.NewDriftMonitor(cfg.Leak.DriftFactor, cfg.Leak.DriftMinDays),
		ledger:     consumption.NewTracker(cfg.Tank.CapacityLiters),
	}
}

func (d *daemon) restoreLedger() error {
	if d.db == nil {
		return nil
	}
	days, err := d.db.Days(7)
	if err != nil {
		return err
	}
	d.ledger.Restore(days, consumption.Day{})
	return nil
}

func runLoop(d *daemon, telemetry, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, commands <-chan scanCommand) error {
	lastTelemetry := now()
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			// The pump must never be left running past shutdown.
			if err := d.pump.Set(false); err != nil {
				log.Printf("pump off at shutdown: %v", err)
			}
			if res := d.scanner.Cancel(now()); res != nil {
				d.finishScan(*res)
			}

			if d.mqttStatus != nil {
				d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
			}
			snap := d.tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case cmd := <-commands:
			d.handleScanCommand(cmd, now())

		case <-tick:
			t := now()
			d.tick(t)

			if telemetry > 0 && t.Sub(lastTelemetry) >= telemetry && !d.lastSample.Timestamp.IsZero() {
				lastTelemetry = t
				if err := d.publisher.PublishLevel(d.lastSample, d.ctrl.Running()); err != nil {
					log.Printf("telemetry publish error: %v", err)
				}
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				snap := d.tracker.Snapshot()
				hb := mqtt.SystemEvent{
					Timestamp:  t,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := d.publisher.PublishSystem(hb); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// tick runs one control period: read, smooth, decide, actuate, account.
func (d *daemon) tick(now time.Time) {
	var smoothed float64
	goodRead := true

	raw, err := d.source.Read()
	if err != nil {
		goodRead = false
		d.prom.SensorFaultTotal.Inc()
		log.Printf("sensor read error: %v", err)
		smoothed, _ = d.filter.Skip()
	} else {
		smoothed = d.filter.Push(raw)
		d.lastSample = control.Sample{Timestamp: now, Raw: raw, Smoothed: smoothed}
	}

	_, primed := d.filter.Last()
	levelOK := primed && d.filter.ConsecutiveFaults() < d.cfg.Control.SensorFaultLimit

	decision := d.ctrl.Tick(smoothed, levelOK, now)

	// Re-asserted every tick; actuator faults are reported upward, not
	// retried here.
	if err := d.pump.Set(decision.Running); err != nil {
		log.Printf("actuator error: %v", err)
	}

	for _, event := range decision.Events {
		log.Printf("event: %s (level %.1f%%)", event.Type, event.Level)
		if err := d.publisher.PublishPump(event); err != nil {
			log.Printf("publish error: %v", err)
		}
		switch event.Type {
		case control.EventPumpOn:
			d.prom.PumpStartsTotal.Inc()
		case control.EventPumpOff:
			d.prom.PumpStopsTotal.Inc()
		case control.EventHardOff:
			d.prom.HardOffTotal.Inc()
		case control.EventFailsafeOff:
			d.prom.FailsafeTotal.Inc()
		}
	}

	hardOff := levelOK && smoothed >= d.cfg.Control.HardOffPercent
	if res := d.scanner.Tick(now, smoothed, goodRead, d.ctrl.Running(), hardOff, d.filter.StdDev()); res != nil {
		d.finishScan(*res)
	}
	d.tracker.UpdateScan(d.scanner.Mode(), d.scanner.Deadline())

	if finalized := d.ledger.Observe(now, smoothed, d.ctrl.Running(), d.scanner.Scanning()); finalized != nil {
		log.Printf("day finalized: %s consumed %.2f%%", finalized.Date, finalized.Percent)
		if d.db != nil {
			if err := d.db.SaveDay(*finalized); err != nil {
				log.Printf("persist day: %v", err)
			}
		}
		d.checkDrift(now, *finalized)
	}

	daysLeft, predErr := consumption.DaysRemaining(smoothed, d.ledger.History())
	predictionOK := predErr == nil

	d.prom.LevelPercent.Set(smoothed)
	if decision.Running {
		d.prom.PumpRunning.Set(1)
	} else {
		d.prom.PumpRunning.Set(0)
	}
	if predictionOK {
		d.prom.DaysRemaining.Set(daysLeft)
	} else {
		d.prom.DaysRemaining.Set(0)
	}

	d.tracker.UpdateControl(d.ctrl.State(), d.ctrl.Since(), d.ctrl.Faulted(), d.lastSample, d.ctrl.Counts(), d.filter.TotalFaults())
	d.tracker.UpdateLedger(d.ledger.Today(), d.ledger.History(), daysLeft, predictionOK)
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

func (d *daemon) handleScanCommand(cmd scanCommand, now time.Time) {
	if cmd.cancel {
		if res := d.scanner.Cancel(now); res != nil {
			d.finishScan(*res)
		} else {
			log.Printf("scan cancel requested with no scan running")
		}
		d.tracker.UpdateScan(d.scanner.Mode(), d.scanner.Deadline())
		return
	}

	level, ok := d.filter.Last()
	if !ok {
		log.Printf("leak scan rejected: no level reading yet")
		return
	}
	if err := d.scanner.Start(now, cmd.duration, level, d.ctrl.Running(), cmd.manual); err != nil {
		log.Printf("leak scan rejected: %v", err)
		return
	}
	log.Printf("leak scan started: %v window from %.1f%%", cmd.duration, level)
	d.tracker.UpdateScan(d.scanner.Mode(), d.scanner.Deadline())
}

func (d *daemon) finishScan(res leak.Result) {
	log.Printf("leak scan result: %s (%s)", res.Classification, res.Reason)
	if d.db != nil {
		if err := d.db.SaveScan(res); err != nil {
			log.Printf("persist scan: %v", err)
		}
	}
	if err := d.publisher.PublishScan(res); err != nil {
		log.Printf("scan publish error: %v", err)
	}
	d.tracker.SetLastScan(res)
	d.prom.ScansTotal.WithLabelValues(string(res.Classification)).Inc()
}

// checkDrift compares the freshly finalized day against the trailing history
// to surface persistent off-pump drift a single scan cannot classify.
func (d *daemon) checkDrift(now time.Time, finalized consumption.Day) {
	hist := d.ledger.History()
	daily := make([]float64, 0, len(hist))
	for _, day := range hist {
		daily = append(daily, day.Percent)
	}

	if flagged, ratio := d.drift.Check(daily); flagged {
		level, _ := d.filter.Last()
		res := leak.Result{
			Start:          now,
			LevelBefore:    level,
			LevelAfter:     level,
			Classification: leak.DownstreamUsageOrLeak,
			Reason: fmt.Sprintf("off-pump drift %.2f%%/day on %s is %.1fx the trailing average",
				finalized.Percent, finalized.Date, ratio),
		}
		d.finishScan(res)
	}
}
