// Command oven-controller runs the gas oven safety and control loop:
// it samples the temperature sensor pair, drives the gas valve and igniter,
// and publishes state changes to MQTT with an HTTP status page on the side.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/oven-controller/internal/config"
	"github.com/sweeney/oven-controller/internal/control"
	"github.com/sweeney/oven-controller/internal/faults"
	"github.com/sweeney/oven-controller/internal/hw"
	"github.com/sweeney/oven-controller/internal/mqtt"
	"github.com/sweeney/oven-controller/internal/status"
	"github.com/sweeney/oven-controller/internal/web"
)

func main() {
	poll := flag.Duration("poll", 100*time.Millisecond, "Control scan interval")
	window := flag.Int("window", 5, "Median filter window size (3-10)")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	pinGas := flag.Int("pin-gas", hw.DefaultPinGas, "BCM pin number for the gas valve")
	pinIgniter := flag.Int("pin-igniter", hw.DefaultPinIgniter, "BCM pin number for the igniter")
	pinDoor := flag.Int("pin-door", hw.DefaultPinDoor, "BCM pin number for the door switch")
	iioDevice := flag.String("iio-device", "iio:device0", "sysfs IIO device for the ADC")
	chanVref := flag.Int("chan-vref", hw.DefaultChanVref, "IIO channel for the sensor reference voltage")
	chanSignal := flag.Int("chan-signal", hw.DefaultChanSignal, "IIO channel for the sensor signal")
	target := flag.Float64("target", config.Defaults().TempTargetC, "Target temperature (°C)")
	delta := flag.Float64("delta", config.Defaults().TempDeltaC, "Hysteresis half-band (°C)")
	flameDetect := flag.Bool("flame-detect", false, "Require a temperature rise to confirm ignition")
	printStatus := flag.Bool("print-status", false, "Print one sensor reading and exit")

	flag.Parse()

	cfg := config.NewStore()
	cfg.SetTempTargetC(*target)
	cfg.SetTempDeltaC(*delta)
	cfg.SetFlameDetectEnabled(*flameDetect)

	if err := run(cfg, *poll, *window, *broker, *heartbeat, *httpAddr,
		*pinGas, *pinIgniter, *pinDoor, *iioDevice, *chanVref, *chanSignal, *printStatus); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Store, poll time.Duration, window int, broker string, heartbeat time.Duration,
	httpAddr string, pinGas, pinIgniter, pinDoor int, iioDevice string, chanVref, chanSignal int,
	printStatus bool) error {

	// Initialize the ADC first; both one-shot and daemon modes need it.
	sampler, err := hw.NewIIOSampler(iioDevice, chanVref, chanSignal)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	defer sampler.Close()

	// Print one reading and exit
	if printStatus {
		vref, signal, err := sampler.ReadMillivolts()
		if err != nil {
			return fmt.Errorf("read adc: %w", err)
		}
		fmt.Printf("vref: %dmV, signal: %dmV, temp: %.1fC\n",
			vref, signal, faults.Temperature(vref, signal))
		return nil
	}

	outputs, err := hw.NewRealOutputs(pinGas, pinIgniter)
	if err != nil {
		return fmt.Errorf("init outputs: %w", err)
	}
	defer outputs.Close()

	door, err := hw.NewRealDoorSensor(pinDoor)
	if err != nil {
		return fmt.Errorf("init door sensor: %w", err)
	}
	defer door.Close()

	ctrl := control.New(cfg, control.Deps{
		Sampler:      sampler,
		Outputs:      outputs,
		NowMS:        hw.MillisClock(),
		FilterWindow: window,
	})

	// Door edges arrive on the gpiocdev event goroutine; the setter is a
	// plain atomic store, safe to call from there.
	if err := door.Watch(func(open bool) {
		ctrl.SetDoorOpen(open)
		if open {
			log.Printf("door open")
		} else {
			log.Printf("door closed")
		}
	}); err != nil {
		return fmt.Errorf("watch door: %w", err)
	}

	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.DaemonConfig{
		PollMs:       poll.Milliseconds(),
		HeartbeatMs:  heartbeat.Milliseconds(),
		Broker:       broker,
		HTTPAddr:     httpAddr,
		FilterWindow: window,
	})

	// Publish startup event with full status snapshot
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

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker, cfg, ctrl)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: poll=%v window=%d broker=%s heartbeat=%v", poll, window, broker, heartbeat)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, cfg, publisher, publisher, tracker, heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(ctrl *control.Controller, cfg *config.Store, publisher mqtt.Publisher,
	mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration,
	now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {

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
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			events := ctrl.Update()

			for _, event := range events {
				log.Printf("event: %s (state=%s temp=%.1fC)", event.Type, event.Status.State, event.Status.TemperatureC)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			// Update status tracker for HTTP/heartbeat consumers
			if tracker != nil {
				tracker.Update(ctrl.Status(), cfg.Snapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			// Check for heartbeat
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
					log.Printf("heartbeat: uptime=%v state=%s temp=%.1fC",
						snap.Uptime().Truncate(time.Second), snap.Oven.State, snap.Oven.TemperatureC)
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}
