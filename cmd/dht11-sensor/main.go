// Command dht11-sensor reads a DHT11 on a GPIO line and publishes readings to
// MQTT, an optional HTTP collector and a local status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/dht11-sensor/internal/config"
	"github.com/sweeney/dht11-sensor/internal/dht11"
	"github.com/sweeney/dht11-sensor/internal/gpio"
	"github.com/sweeney/dht11-sensor/internal/logic"
	"github.com/sweeney/dht11-sensor/internal/metrics"
	"github.com/sweeney/dht11-sensor/internal/mqtt"
	"github.com/sweeney/dht11-sensor/internal/report"
	"github.com/sweeney/dht11-sensor/internal/status"
	"github.com/sweeney/dht11-sensor/internal/web"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	def := config.Default()
	configPath := flag.String("config", "", "YAML config file (flags override it)")
	name := flag.String("name", def.Name, "Sensor name used in payloads")
	chip := flag.String("chip", def.Sensor.Chip, "GPIO chip")
	pin := flag.Int("pin", def.Sensor.Pin, "Line offset of the sensor data pin")
	attempts := flag.Int("attempts", def.Sensor.Attempts, "Handshake attempts per read")
	interval := flag.Duration("interval", def.Sensor.Interval, "Read interval (at least 2s)")
	broker := flag.String("broker", def.MQTT.Broker, "MQTT broker address (empty to disable)")
	heartbeat := flag.Duration("heartbeat", def.MQTT.Heartbeat, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", def.HTTPAddr, "HTTP status address (empty to disable)")
	reportURL := flag.String("report-url", def.Report.URL, "URL readings are posted to (empty to disable)")
	logLevel := flag.String("log-level", def.LogLevel, "Log level")
	printReading := flag.Bool("print-reading", false, "Print one reading and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	// Only flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Name = *name
		case "chip":
			cfg.Sensor.Chip = *chip
		case "pin":
			cfg.Sensor.Pin = *pin
		case "attempts":
			cfg.Sensor.Attempts = *attempts
		case "interval":
			cfg.Sensor.Interval = *interval
		case "broker":
			cfg.MQTT.Broker = *broker
		case "heartbeat":
			cfg.MQTT.Heartbeat = *heartbeat
		case "http":
			cfg.HTTPAddr = *httpAddr
		case "report-url":
			cfg.Report.URL = *reportURL
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("invalid log level")
	}
	log.SetLevel(level)

	if err := run(cfg, *printReading); err != nil {
		log.WithError(err).Fatal("fatal")
	}
}

func run(cfg config.Config, printReading bool) error {
	// Bit timing is measured by busy-waiting; keep the reads on one OS thread.
	defer gpio.LockThread()()

	line, err := gpio.NewRealLine(cfg.Sensor.Chip, cfg.Sensor.Pin)
	if err != nil {
		return errors.Wrap(err, "init gpio")
	}
	defer line.Close()

	sensor := dht11.NewSensor(cfg.Sensor.Pin, line, gpio.SysClock{}, cfg.Timing())

	if printReading {
		if err := sensor.Read(cfg.Sensor.Attempts); err != nil {
			return errors.Wrap(err, "read sensor")
		}
		fmt.Printf("Temperature: %.1f°C, Humidity: %.1f%%\n", sensor.Temperature, sensor.Humidity)
		return nil
	}

	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Name:        cfg.Name,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
		})
		if err != nil {
			return errors.Wrap(err, "init mqtt")
		}
		defer p.Close()
		publisher, mqttStatus = p, p
	}

	var reporter report.Reporter
	if cfg.Report.URL != "" {
		reporter = report.NewHTTPReporter(cfg.Report.URL, cfg.Name, cfg.Report.Timeout)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, cfg.Name)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Name:        cfg.Name,
		Chip:        cfg.Sensor.Chip,
		Pin:         cfg.Sensor.Pin,
		Attempts:    cfg.Sensor.Attempts,
		IntervalMs:  cfg.Sensor.Interval.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTPAddr,
		ReportURL:   cfg.Report.URL,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.WithField("addr", cfg.HTTPAddr).Info("http status server listening")
	}

	log.WithFields(log.Fields{
		"name":      cfg.Name,
		"chip":      cfg.Sensor.Chip,
		"pin":       cfg.Sensor.Pin,
		"interval":  cfg.Sensor.Interval,
		"attempts":  cfg.Sensor.Attempts,
		"broker":    cfg.MQTT.Broker,
		"heartbeat": cfg.MQTT.Heartbeat,
	}).Info("started")

	ticker := time.NewTicker(cfg.Sensor.Interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loopConfig{
		sensor:        sensor,
		attempts:      cfg.Sensor.Attempts,
		lostAfter:     cfg.Sensor.LostAfter,
		heartbeat:     cfg.MQTT.Heartbeat,
		publisher:     publisher,
		mqttStatus:    mqttStatus,
		reporter:      reporter,
		reportTimeout: cfg.Report.Timeout,
		metrics:       m,
		tracker:       tracker,
		now:           time.Now,
	}, ticker.C, sigCh)
}

// loopConfig holds the collaborators of runLoop. Nil publisher, reporter
// and metrics are skipped.
type loopConfig struct {
	sensor        *dht11.Sensor
	attempts      int
	lostAfter     int
	heartbeat     time.Duration
	publisher     mqtt.Publisher
	mqttStatus    mqtt.ConnectionStatus
	reporter      report.Reporter
	reportTimeout time.Duration // <= 0 uses report.DefaultTimeout
	metrics       *metrics.Metrics
	tracker       *status.Tracker
	now           func() time.Time
}

func runLoop(c loopConfig, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := c.now()
	monitor := logic.NewMonitor(c.lostAfter, startTime)

	publishSystem(c, "STARTUP", "")

	for {
		select {
		case s := <-sig:
			log.WithField("signal", s).Info("shutting down")
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			publishSystem(c, "SHUTDOWN", signalName)
			return nil

		case <-tick:
			t := c.now()
			input := readSensor(c.sensor, c.attempts, t)
			if c.metrics != nil {
				c.metrics.ObserveRead(input, c.now().Sub(t))
			}

			for _, event := range monitor.Process(input) {
				log.WithFields(log.Fields{
					"event":       event.Type,
					"temperature": event.Reading.Temperature,
					"humidity":    event.Reading.Humidity,
					"reason":      event.Reason,
				}).Info("event")
				if c.publisher != nil {
					if err := c.publisher.Publish(event); err != nil {
						// Don't crash on publish failure
						log.WithError(err).Warn("publish error")
					}
				}
				if event.Type == logic.EventReading && c.reporter != nil {
					timeout := c.reportTimeout
					if timeout <= 0 {
						timeout = report.DefaultTimeout
					}
					ctx, cancel := context.WithTimeout(context.Background(), timeout)
					if err := c.reporter.Report(ctx, event.Reading); err != nil {
						log.WithError(err).Warn("report error")
					}
					cancel()
				}
			}

			if c.metrics != nil {
				c.metrics.SetUp(!monitor.IsLost())
			}

			// Update status tracker for HTTP consumers
			if c.tracker != nil {
				c.tracker.Update(monitor)
				if input.Failure != logic.FailureNone {
					c.tracker.RecordFailure(input.Failure, t)
				}
				if c.mqttStatus != nil {
					c.tracker.SetMQTTConnected(c.mqttStatus.IsConnected())
				}
			}

			if hb := monitor.CheckHeartbeat(t, c.heartbeat); hb != nil {
				log.WithFields(log.Fields{
					"uptime":            hb.Uptime,
					"reads":             hb.Counts.Reads,
					"connection_errors": hb.Counts.ConnectionErrors,
					"checksum_errors":   hb.Counts.ChecksumErrors,
				}).Info("heartbeat")
				// Refresh network info for heartbeat
				if c.tracker != nil {
					if net := readNetworkInfo(); net != nil {
						c.tracker.SetNetwork(net)
					}
				}
				publishSystem(c, "HEARTBEAT", "")
			}
		}
	}
}

// readSensor runs one read transaction and classifies the outcome.
func readSensor(sensor *dht11.Sensor, attempts int, t time.Time) logic.Input {
	err := sensor.Read(attempts)
	switch {
	case err == nil:
		return logic.Input{Time: t, Temperature: sensor.Temperature, Humidity: sensor.Humidity}
	case errors.Is(err, dht11.ErrChecksumMismatch):
		log.WithError(err).Warn("read failed")
		return logic.Input{Time: t, Failure: logic.FailureChecksumMismatch}
	default:
		log.WithError(err).Warn("read failed")
		return logic.Input{Time: t, Failure: logic.FailureConnectionFailed}
	}
}

// publishSystem sends a lifecycle event carrying the full status snapshot.
func publishSystem(c loopConfig, event, reason string) {
	if c.publisher == nil {
		return
	}
	ev := mqtt.SystemEvent{
		Timestamp: c.now(),
		Event:     event,
		Reason:    reason,
		Retained:  event != "HEARTBEAT",
	}
	if c.tracker != nil {
		if c.mqttStatus != nil {
			c.tracker.SetMQTTConnected(c.mqttStatus.IsConnected())
		}
		ev.RawPayload = status.FormatStatusEvent(c.tracker.Snapshot(), event, reason)
	}
	if err := c.publisher.PublishSystem(ev); err != nil {
		log.WithError(err).WithField("event", event).Warn("failed to publish system event")
		return
	}
	log.WithField("event", event).Debug("published system event")
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
